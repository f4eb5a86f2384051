package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Uzal123/unibolx-ecommerce-frontend/internal/api"
	"github.com/Uzal123/unibolx-ecommerce-frontend/internal/cart"
	"github.com/Uzal123/unibolx-ecommerce-frontend/internal/domain"
	"github.com/Uzal123/unibolx-ecommerce-frontend/internal/session"
)

// app is the interactive shell. One reconciler exists per login and is
// discarded on logout, so cart state never leaks across users.
type app struct {
	client   *api.Client
	sessions *session.Store
	log      *slog.Logger
	out      io.Writer

	reconciler *cart.Reconciler
}

func newApp(client *api.Client, sessions *session.Store, log *slog.Logger, out io.Writer) *app {
	return &app{client: client, sessions: sessions, log: log, out: out}
}

func (a *app) run(ctx context.Context, in io.Reader) error {
	a.printf("unibolx storefront — type 'help' for commands")

	scanner := bufio.NewScanner(in)
	a.prompt()
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			a.prompt()
			continue
		}

		if fields[0] == "quit" || fields[0] == "exit" {
			return nil
		}
		a.dispatch(ctx, fields[0], fields[1:])
		a.prompt()
	}
	return scanner.Err()
}

func (a *app) dispatch(ctx context.Context, command string, args []string) {
	switch command {
	case "help":
		a.printHelp()
	case "login":
		a.login(ctx, args)
	case "logout":
		a.logout()
	case "items":
		a.listItems(ctx)
	case "cart":
		a.showCart()
	case "refresh":
		a.withCart(func(r *cart.Reconciler) {
			if r.Fetch(ctx) == nil {
				a.showCart()
			}
		})
	case "add":
		a.mutateQuantity(ctx, args, func(r *cart.Reconciler, itemID int64, qty int) error {
			return r.AddItem(ctx, itemID, qty)
		})
	case "remove":
		a.mutateQuantity(ctx, args, func(r *cart.Reconciler, itemID int64, qty int) error {
			return r.RemoveItem(ctx, itemID, qty)
		})
	case "coupon":
		if len(args) != 1 {
			a.printf("usage: coupon <code>")
			return
		}
		a.withCart(func(r *cart.Reconciler) {
			if r.ApplyCoupon(ctx, args[0]) == nil {
				a.showCart()
			}
		})
	case "coupon-rm":
		a.withCart(func(r *cart.Reconciler) {
			if r.RemoveCoupon(ctx) == nil {
				a.showCart()
			}
		})
	case "order":
		a.placeOrder(ctx)
	case "insights":
		a.insights(ctx)
	case "new-coupon":
		a.createCoupon(ctx, args)
	default:
		a.printf("unknown command %q — type 'help'", command)
	}
}

func (a *app) login(ctx context.Context, args []string) {
	if len(args) != 1 {
		a.printf("usage: login <username>")
		return
	}

	user, err := a.client.Login(ctx, args[0])
	if err != nil {
		a.printf("login failed: %v", err)
		return
	}

	a.sessions.SetUser(user)
	a.reconciler = cart.New(a.client, user.ID, a.notify, a.log)
	a.printf("logged in as %s", user.Username)

	if user.IsAdmin {
		a.insights(ctx)
		return
	}
	if err := a.reconciler.Fetch(ctx); err == nil {
		a.showCart()
	}
}

func (a *app) logout() {
	a.sessions.Logout()
	a.reconciler = nil
	a.printf("logged out")
}

func (a *app) listItems(ctx context.Context) {
	items, err := a.client.ListItems(ctx)
	if err != nil {
		a.printf("could not load the catalog: %v", err)
		return
	}

	var snapshot = a.snapshot()
	for _, item := range items {
		line := fmt.Sprintf("  [%d] %-12s $%s", item.ID, item.Name, item.Price)
		if snapshot != nil {
			if ci := snapshot.Item(item.ID); ci != nil {
				line += fmt.Sprintf("  (in cart ×%d)", ci.Quantity)
			}
		}
		a.printf("%s", line)
	}
}

func (a *app) showCart() {
	snapshot := a.snapshot()
	if snapshot == nil || snapshot.Empty() {
		a.printf("your cart is empty")
		return
	}

	for _, it := range snapshot.Items {
		a.printf("  %-12s ×%-3d $%s", it.Name, it.Quantity, it.TotalPrice)
	}
	a.printf("  total: $%s  discount: $%s  grand total: $%s",
		snapshot.Total, snapshot.DiscountAmount, snapshot.GrandTotal)
	if snapshot.DiscountCodeUsed != "" {
		a.printf("  applied coupon: %s", snapshot.DiscountCodeUsed)
	}
	if len(snapshot.AvailableDiscountCodes) > 0 {
		a.printf("  available coupons:")
		for _, d := range snapshot.AvailableDiscountCodes {
			a.printf("    %s (%d%% off)", d.Code, d.Percentage)
		}
	}
}

func (a *app) mutateQuantity(ctx context.Context, args []string, op func(*cart.Reconciler, int64, int) error) {
	if len(args) < 1 || len(args) > 2 {
		a.printf("usage: add|remove <item-id> [quantity]")
		return
	}

	itemID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		a.printf("invalid item id %q", args[0])
		return
	}
	qty := 1
	if len(args) == 2 {
		if qty, err = strconv.Atoi(args[1]); err != nil || qty <= 0 {
			a.printf("invalid quantity %q", args[1])
			return
		}
	}

	a.withCart(func(r *cart.Reconciler) {
		if op(r, itemID, qty) == nil {
			a.showCart()
		}
	})
}

func (a *app) placeOrder(ctx context.Context) {
	a.withCart(func(r *cart.Reconciler) {
		order, err := r.PlaceOrder(ctx)
		if err != nil {
			return
		}
		a.printf("order %s placed, grand total $%s", order.OrderID, order.GrandTotal)
		a.showCart()
	})
}

func (a *app) insights(ctx context.Context) {
	if !a.sessions.IsAdmin() {
		a.printf("insights are only available to admins")
		return
	}

	insights, err := a.client.AdminInsights(ctx)
	if err != nil {
		a.printf("could not load insights: %v", err)
		return
	}

	a.printf("  orders: %d  revenue: $%s  avg order: $%s",
		insights.TotalOrders, insights.TotalRevenue, insights.AverageOrderValue)
	a.printf("  carts: %d  catalog items: %d  avg items/cart: %s",
		insights.TotalCarts, insights.TotalItems, insights.AverageItemsPerCart)
	a.printf("  coupons: %d  used: %d  discounted: $%s",
		insights.TotalDiscountCodes, insights.TotalDiscountCodesUsed, insights.TotalDiscountAmount)
	for _, d := range insights.DiscountCodes {
		a.printf("    %s (%d%% off)", d.Code, d.Percentage)
	}
}

func (a *app) createCoupon(ctx context.Context, args []string) {
	if !a.sessions.IsAdmin() {
		a.printf("coupon creation is only available to admins")
		return
	}
	if len(args) != 1 {
		a.printf("usage: new-coupon <percentage>")
		return
	}
	pct, err := strconv.Atoi(args[0])
	if err != nil {
		a.printf("invalid percentage %q", args[0])
		return
	}

	if err := a.client.CreateDiscount(ctx, pct); err != nil {
		a.printf("could not create the coupon: %v", err)
		return
	}
	a.printf("coupon created")
	a.insights(ctx)
}

// withCart runs fn only when a user is logged in, the route-guard analog
// for cart commands.
func (a *app) withCart(fn func(*cart.Reconciler)) {
	if !a.sessions.IsAuthenticated() || a.reconciler == nil {
		a.printf("please 'login <username>' first")
		return
	}
	fn(a.reconciler)
}

func (a *app) snapshot() *domain.Cart {
	if a.reconciler == nil {
		return nil
	}
	return a.reconciler.Snapshot()
}

func (a *app) notify(msg string) {
	a.printf("» %s", msg)
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format+"\n", args...)
}

func (a *app) prompt() {
	if user, ok := a.sessions.Current(); ok {
		fmt.Fprintf(a.out, "%s> ", user.Username)
		return
	}
	fmt.Fprint(a.out, "> ")
}

func (a *app) printHelp() {
	a.printf(`commands:
  login <username>        authenticate (username "admin" gets the admin view)
  logout                  discard the session
  items                   list the catalog
  cart                    show the current cart
  refresh                 re-fetch the cart from the backend
  add <item-id> [qty]     add an item to the cart
  remove <item-id> [qty]  remove an item from the cart
  coupon <code>           apply a discount code
  coupon-rm               remove the applied discount code
  order                   place the order
  insights                admin metrics dashboard
  new-coupon <pct>        create a discount code (admin)
  quit                    exit`)
}
