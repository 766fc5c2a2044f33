package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/nagyyasser2/eshop-client-sub000/internal/app"
	"github.com/nagyyasser2/eshop-client-sub000/internal/config"
	"github.com/nagyyasser2/eshop-client-sub000/internal/domain"
	"github.com/nagyyasser2/eshop-client-sub000/internal/dto"
	"github.com/nagyyasser2/eshop-client-sub000/internal/session"
)

const googleLoginTimeout = 3 * time.Minute

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	infra, err := app.NewInfrastructure(ctx, *cfg)
	if err != nil {
		log.Fatalf("Failed to initialize infrastructure: %v", err)
	}

	application := app.NewApp(infra, cfg)
	defer application.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		infra.Logger().Info("Received shutdown signal")
		cancel()
	}()

	if err := run(ctx, cfg, infra, application, os.Args[1:]); err != nil {
		infra.Logger().Debug("command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "error:", err)
		shutdown(infra)
		os.Exit(1)
	}
	shutdown(infra)
}

func shutdown(infra app.Infrastructure) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = infra.Shutdown(ctx)
}

func run(ctx context.Context, cfg *config.Config, infra app.Infrastructure, a *app.App, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: eshop <health|login|login-google|register|logout|me|cart|order|orders|pay|serve> ...")
	}

	a.Restore(ctx)

	switch args[0] {
	case "health":
		resp, err := a.API.Health(ctx)
		if err != nil {
			return err
		}
		fmt.Println("backend status:", resp.Status)
		return nil

	case "login":
		if len(args) != 3 {
			return errors.New("usage: eshop login <email> <password>")
		}
		identity, err := a.Login(ctx, args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Println("signed in as", identity.FullName(), "<"+identity.Email+">")
		return nil

	case "login-google":
		return loginGoogle(ctx, cfg, infra, a)

	case "register":
		if len(args) != 6 {
			return errors.New("usage: eshop register <first> <last> <email> <password> <dateOfBirth>")
		}
		identity, err := a.Register(ctx, dto.RegisterRequest{
			FirstName:       args[1],
			LastName:        args[2],
			Email:           args[3],
			Password:        args[4],
			ConfirmPassword: args[4],
			DateOfBirth:     args[5],
		})
		if err != nil {
			return err
		}
		fmt.Println("registered and signed in as", identity.Email)
		return nil

	case "logout":
		a.Logout(ctx)
		fmt.Println("signed out")
		return nil

	case "me":
		if a.Session.State() != session.StateAuthenticated {
			if msg := a.Session.ErrMessage(); msg != "" {
				return errors.New(msg)
			}
			return errors.New("not signed in")
		}
		profile, err := a.API.Profile(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s <%s>\n", profile.FirstName, profile.LastName, profile.Email)
		return nil

	case "cart":
		return cartCommand(a, args[1:], cfg)

	case "order":
		return orderCommand(ctx, a, args[1:])

	case "orders":
		list, err := a.API.MyOrders(ctx)
		if err != nil {
			return err
		}
		for _, o := range list {
			fmt.Printf("#%d  %-12s %s  %s\n", o.ID, o.Status, o.TotalAmount.StringFixed(2), o.CreatedAt)
		}
		return nil

	case "pay":
		if len(args) != 2 {
			return errors.New("usage: eshop pay <orderID>")
		}
		orderID, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid order id: %w", err)
		}
		sess, err := a.API.CreateCheckoutSession(ctx, orderID)
		if err != nil {
			return err
		}
		fmt.Println("open to pay:", sess.URL)
		return nil

	case "serve":
		server := app.NewCallbackServer(cfg, infra.MetricsHandler(), func(ctx context.Context) error {
			_, err := a.API.Health(ctx)
			return err
		}, infra.Logger())
		return server.Run(ctx)

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// loginGoogle runs the local listener, waits for the redirect credential
// and exchanges it for a session.
func loginGoogle(ctx context.Context, cfg *config.Config, infra app.Infrastructure, a *app.App) error {
	ctx, cancel := context.WithTimeout(ctx, googleLoginTimeout)
	defer cancel()

	server := app.NewCallbackServer(cfg, infra.MetricsHandler(), nil, infra.Logger())

	serveCtx, stopServe := context.WithCancel(ctx)
	defer stopServe()
	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Run(serveCtx) }()

	fmt.Printf("complete the Google sign-in in your browser; the redirect target is http://%s/callback\n",
		cfg.Callback.Address())

	credential, err := server.AwaitCredential(ctx)
	if err != nil {
		return err
	}
	stopServe()
	<-serveErr

	identity, err := a.LoginWithGoogle(ctx, credential)
	if err != nil {
		return err
	}
	fmt.Println("signed in as", identity.FullName(), "<"+identity.Email+">")
	return nil
}

func cartCommand(a *app.App, args []string, cfg *config.Config) error {
	if len(args) == 0 {
		args = []string{"ls"}
	}

	switch args[0] {
	case "ls":
		lines := a.Cart.Lines()
		if len(lines) == 0 {
			fmt.Println("cart is empty")
			return nil
		}
		for _, l := range lines {
			fmt.Printf("%-6d %-24s %3d x %8s = %8s\n",
				l.ProductID, l.ProductName, l.Quantity,
				l.UnitPrice.StringFixed(2), l.LineTotal().StringFixed(2))
		}
		return nil

	case "add":
		if len(args) < 5 {
			return errors.New("usage: eshop cart add <productID> <name> <unitPrice> <quantity> [sku]")
		}
		productID, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid product id: %w", err)
		}
		price, err := decimal.NewFromString(args[3])
		if err != nil {
			return fmt.Errorf("invalid unit price: %w", err)
		}
		quantity, err := strconv.Atoi(args[4])
		if err != nil {
			return fmt.Errorf("invalid quantity: %w", err)
		}
		sku := ""
		if len(args) > 5 {
			sku = args[5]
		}
		a.Cart.Add(domain.CartLine{
			ProductID:   productID,
			ProductName: args[2],
			UnitPrice:   price,
			Quantity:    quantity,
			SKU:         sku,
		})
		return nil

	case "rm":
		if len(args) != 2 {
			return errors.New("usage: eshop cart rm <productID>")
		}
		productID, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid product id: %w", err)
		}
		a.Cart.Remove(productID)
		return nil

	case "set":
		if len(args) != 3 {
			return errors.New("usage: eshop cart set <productID> <quantity>")
		}
		productID, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid product id: %w", err)
		}
		quantity, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid quantity: %w", err)
		}
		a.Cart.UpdateQuantity(productID, quantity)
		return nil

	case "clear":
		a.Cart.Clear()
		return nil

	case "totals":
		taxRate := decimal.NewFromFloat(cfg.Order.TaxRate)
		totals := a.Cart.Totals(decimal.Zero, decimal.Zero, taxRate)
		fmt.Println("subtotal:", totals.SubTotal.StringFixed(2))
		fmt.Println("tax:     ", totals.TaxAmount.StringFixed(2))
		fmt.Println("total:   ", totals.TotalAmount.StringFixed(2))
		return nil

	default:
		return fmt.Errorf("unknown cart command %q", args[0])
	}
}

func orderCommand(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("order", flag.ContinueOnError)
	first := fs.String("first", "", "recipient first name")
	last := fs.String("last", "", "recipient last name")
	street := fs.String("street", "", "street address")
	city := fs.String("city", "", "city")
	country := fs.String("country", "", "country")
	postal := fs.String("postal", "", "postal code")
	method := fs.String("method", "card", "payment method")
	shipping := fs.String("shipping", "0", "shipping amount")
	discount := fs.String("discount", "0", "discount amount")
	tax := fs.String("tax", "0.1", "tax rate")
	notes := fs.String("notes", "", "order notes")
	keep := fs.Bool("keep", false, "keep the cart after a successful order")
	if err := fs.Parse(args); err != nil {
		return err
	}

	shippingAmount, err := decimal.NewFromString(*shipping)
	if err != nil {
		return fmt.Errorf("invalid shipping amount: %w", err)
	}
	discountAmount, err := decimal.NewFromString(*discount)
	if err != nil {
		return fmt.Errorf("invalid discount amount: %w", err)
	}
	taxRate, err := decimal.NewFromString(*tax)
	if err != nil {
		return fmt.Errorf("invalid tax rate: %w", err)
	}

	resp, err := a.Cart.CreateOrder(ctx,
		dto.ShippingInfo{
			FirstName:  *first,
			LastName:   *last,
			Street:     *street,
			City:       *city,
			Country:    *country,
			PostalCode: *postal,
		},
		dto.PaymentInfo{
			Method:         *method,
			ShippingAmount: shippingAmount,
			DiscountAmount: discountAmount,
			TaxRate:        taxRate,
		},
		*notes,
	)
	if err != nil {
		return err
	}

	// Order creation leaves the cart intact; clearing is this layer's call.
	if !*keep {
		a.Cart.Clear()
	}
	a.Drafts.Clear()

	fmt.Printf("order #%d created, total %s\n", resp.ID, resp.TotalAmount.StringFixed(2))
	return nil
}
