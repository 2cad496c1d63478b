package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/cellar-market/wine-marketplace/internal/auth"
)

// TxStarter is satisfied by *pgxpool.Pool and *pgx.Conn.
type TxStarter interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Summary counts queued rows per table. Rows that already existed are skipped
// by the database and still counted here.
type Summary map[string]int

// Seed writes fixtures in a single transaction. Existing rows are left untouched.
func Seed(ctx context.Context, db TxStarter, f Fixtures, bcryptCost int, logger *zap.Logger) (Summary, error) {
	batch, summary, err := buildBatch(f, bcryptCost)
	if err != nil {
		return nil, err
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return nil, fmt.Errorf("seed statement %d: %w", i+1, err)
		}
	}
	if err := results.Close(); err != nil {
		return nil, fmt.Errorf("close seed batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit seed transaction: %w", err)
	}

	for table, n := range summary {
		logger.Info("seeded", zap.String("table", table), zap.Int("rows", n))
	}
	return summary, nil
}

func buildBatch(f Fixtures, bcryptCost int) (*pgx.Batch, Summary, error) {
	batch := &pgx.Batch{}
	summary := Summary{}
	queue := func(table, sql string, args ...any) {
		batch.Queue(sql, args...)
		summary[table]++
	}

	for _, a := range f.Accounts {
		hash, err := auth.HashPassword(a.Password, bcryptCost)
		if err != nil {
			return nil, nil, fmt.Errorf("hash password for %s: %w", a.User.Email, err)
		}
		u := a.User
		queue("users", `
            INSERT INTO users (id, email, password_hash, first_name, last_name, role, is_active)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            ON CONFLICT DO NOTHING`,
			u.ID, u.Email, hash, u.FirstName, u.LastName, string(u.Role), u.IsActive)
	}

	for _, w := range f.Wines {
		var vintage *int
		if w.Vintage > 0 {
			v := w.Vintage
			vintage = &v
		}
		queue("wines", `
            INSERT INTO wines (id, sku, name, winery, region, country, vintage, wine_type, price_cents, stock, is_active)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
            ON CONFLICT DO NOTHING`,
			w.ID, w.SKU, w.Name, w.Winery, w.Region, w.Country, vintage, string(w.Type), w.PriceCents, w.Stock, w.IsActive)
	}

	for _, o := range f.Orders {
		queue("orders", `
            INSERT INTO orders (id, order_number, user_id, status, total_cents)
            VALUES ($1, $2, $3, $4, $5)
            ON CONFLICT DO NOTHING`,
			o.ID, o.OrderNumber, o.UserID, string(o.Status), o.TotalCents)
		for _, item := range o.Items {
			queue("order_items", `
                INSERT INTO order_items (id, order_id, wine_id, quantity, unit_price_cents)
                VALUES ($1, $2, $3, $4, $5)
                ON CONFLICT DO NOTHING`,
				item.ID, item.OrderID, item.WineID, item.Quantity, item.UnitPriceCents)
		}
	}

	for _, r := range f.Refunds {
		queue("refunds", `
            INSERT INTO refunds (id, order_id, user_id, amount_cents, reason, status, admin_notes, reviewed_by)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
            ON CONFLICT DO NOTHING`,
			r.ID, r.OrderID, r.UserID, r.AmountCents, r.Reason, string(r.Status), r.AdminNotes, r.ReviewedBy)
	}

	for _, r := range f.Reviews {
		queue("reviews", `
            INSERT INTO reviews (id, wine_id, user_id, rating, comment)
            VALUES ($1, $2, $3, $4, $5)
            ON CONFLICT DO NOTHING`,
			r.ID, r.WineID, r.UserID, r.Rating, r.Comment)
	}

	for _, m := range f.Messages {
		queue("messages", `
            INSERT INTO messages (id, user_id, order_id, subject, body, is_read)
            VALUES ($1, $2, $3, $4, $5, $6)
            ON CONFLICT DO NOTHING`,
			m.ID, m.UserID, m.OrderID, m.Subject, m.Body, m.IsRead)
	}

	for _, w := range f.Wishlists {
		queue("wishlist_items", `
            INSERT INTO wishlist_items (id, user_id, wine_id)
            VALUES ($1, $2, $3)
            ON CONFLICT DO NOTHING`,
			w.ID, w.UserID, w.WineID)
	}

	return batch, summary, nil
}
