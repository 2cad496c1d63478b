// Package seed inserts the fixture rows used for manual testing of the admin
// dashboard and storefront.
package seed

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/cellar-market/wine-marketplace/internal/domain"
)

var namespace = uuid.MustParse("6f0f3d0e-58a4-4c55-9a33-5b1f3c2a9e10")

// fixtureID derives a stable id so re-running the seeder hits the same rows.
func fixtureID(kind, name string) string {
	return uuid.NewSHA1(namespace, []byte(kind+":"+name)).String()
}

// Account is a seeded user and the plain password it signs in with.
type Account struct {
	User     domain.User
	Password string
}

// Fixtures is the full data set written by Seed.
type Fixtures struct {
	Accounts  []Account
	Wines     []domain.Wine
	Orders    []domain.Order
	Refunds   []domain.Refund
	Reviews   []domain.Review
	Messages  []domain.Message
	Wishlists []domain.WishlistItem
}

// Default builds the standard fixture set: two admins, one customer, a small
// catalog, one order per status and one refund per status.
func Default() Fixtures {
	admin := account("admin@winemarket.com", "Admin123!", "Ana", "Souza", domain.RoleAdmin)
	super := account("super@winemarket.com", "SuperAdmin123!", "Sam", "Okafor", domain.RoleSuperAdmin)
	customer := account("customer@example.com", "Customer123!", "Chris", "Lee", domain.RoleUser)

	wines := []domain.Wine{
		wine("CAB-2019-NV", "Reserve Cabernet Sauvignon", "Stag Ridge", "Napa Valley", "USA", 2019, domain.WineTypeRed, 6500, 24),
		wine("RIE-2021-MO", "Kabinett Riesling", "Weingut Hahn", "Mosel", "Germany", 2021, domain.WineTypeWhite, 2400, 60),
		wine("ROS-2022-PR", "Côtes de Provence Rosé", "Domaine Clair", "Provence", "France", 2022, domain.WineTypeRose, 1900, 80),
		wine("CHA-NV-CH", "Brut Champagne", "Maison Vey", "Champagne", "France", 0, domain.WineTypeSparkling, 5200, 36),
		wine("TOK-2017-HU", "Tokaji Aszú 5 Puttonyos", "Királyudvar", "Tokaj", "Hungary", 2017, domain.WineTypeDessert, 7800, 12),
	}

	f := Fixtures{
		Accounts: []Account{admin, super, customer},
		Wines:    wines,
	}

	for i, status := range domain.OrderStatuses {
		w := wines[i%len(wines)]
		qty := i%3 + 1
		orderID := fixtureID("order", string(status))
		f.Orders = append(f.Orders, domain.Order{
			ID:          orderID,
			OrderNumber: fmt.Sprintf("WM-%04d", 1001+i),
			UserID:      customer.User.ID,
			Status:      status,
			TotalCents:  w.PriceCents * int64(qty),
			Items: []domain.OrderItem{{
				ID:             fixtureID("order-item", string(status)),
				OrderID:        orderID,
				WineID:         w.ID,
				Quantity:       qty,
				UnitPriceCents: w.PriceCents,
			}},
		})
	}

	// Refund requests hang off the delivered and cancelled orders first.
	refundable := []domain.Order{}
	for _, o := range f.Orders {
		if o.Status == domain.OrderStatusDelivered || o.Status == domain.OrderStatusCancelled {
			refundable = append(refundable, o)
		}
	}
	for _, o := range f.Orders {
		if o.Status != domain.OrderStatusDelivered && o.Status != domain.OrderStatusCancelled {
			refundable = append(refundable, o)
		}
	}
	reviewer := admin.User.ID
	for i, status := range domain.RefundStatuses {
		o := refundable[i]
		r := domain.Refund{
			ID:          fixtureID("refund", string(status)),
			OrderID:     o.ID,
			UserID:      customer.User.ID,
			AmountCents: o.TotalCents,
			Reason:      "Seeded refund request (" + string(status) + ")",
			Status:      status,
		}
		if status != domain.RefundStatusPending {
			r.ReviewedBy = &reviewer
			r.AdminNotes = "Reviewed during seeding"
		}
		f.Refunds = append(f.Refunds, r)
	}

	var delivered domain.Order
	for _, o := range f.Orders {
		if o.Status == domain.OrderStatusDelivered {
			delivered = o
		}
	}
	f.Reviews = []domain.Review{{
		ID:      fixtureID("review", "customer-cab"),
		WineID:  wines[0].ID,
		UserID:  customer.User.ID,
		Rating:  5,
		Comment: "Dark fruit, firm tannins. Worth the wait.",
	}}
	f.Messages = []domain.Message{{
		ID:      fixtureID("message", "customer-delivery"),
		UserID:  customer.User.ID,
		OrderID: &delivered.ID,
		Subject: "Question about my delivery",
		Body:    "One bottle arrived with a damaged label. Can I still return it?",
	}}
	f.Wishlists = []domain.WishlistItem{
		{ID: fixtureID("wishlist", "customer-tokaji"), UserID: customer.User.ID, WineID: wines[4].ID},
		{ID: fixtureID("wishlist", "customer-champagne"), UserID: customer.User.ID, WineID: wines[3].ID},
	}
	return f
}

func account(email, password, first, last string, role domain.Role) Account {
	return Account{
		User: domain.User{
			ID:        fixtureID("user", email),
			Email:     email,
			FirstName: first,
			LastName:  last,
			Role:      role,
			IsActive:  true,
		},
		Password: password,
	}
}

func wine(sku, name, winery, region, country string, vintage int, kind domain.WineType, price int64, stock int) domain.Wine {
	return domain.Wine{
		ID:         fixtureID("wine", sku),
		SKU:        sku,
		Name:       name,
		Winery:     winery,
		Region:     region,
		Country:    country,
		Vintage:    vintage,
		Type:       kind,
		PriceCents: price,
		Stock:      stock,
		IsActive:   true,
	}
}
