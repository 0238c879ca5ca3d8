package offers

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/circulars-tracker/internal/entity"
)

// CuratedProvider serves hand-checked circular prices from a local sqlite
// database. It exists so the service gives accurate answers for at least one
// store while scrapers and OCR remain best-effort.
type CuratedProvider struct {
	db     *sql.DB
	store  string
	logger *slog.Logger
}

func OpenCuratedProvider(path, store string, logger *slog.Logger) (*CuratedProvider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if store == "" {
		store = "Raley's"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open curated db: %w", err)
	}
	p := &CuratedProvider{db: db, store: store, logger: logger}
	if err := p.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return p, nil
}

func (p *CuratedProvider) Close() error { return p.db.Close() }

func (p *CuratedProvider) Name() string { return "Curated DB" }

func (p *CuratedProvider) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS curated_products (
    id       INTEGER PRIMARY KEY AUTOINCREMENT,
    name     TEXT NOT NULL,
    price    REAL NOT NULL,
    unit     TEXT NOT NULL DEFAULT 'ea',
    category TEXT NOT NULL DEFAULT 'Featured'
);
CREATE INDEX IF NOT EXISTS idx_curated_products_name ON curated_products(name);`
	if _, err := p.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("curated schema: %w", err)
	}

	var count int
	if err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM curated_products`).Scan(&count); err != nil {
		return fmt.Errorf("curated count: %w", err)
	}
	if count > 0 {
		return nil
	}
	return p.seed(ctx)
}

func (p *CuratedProvider) seed(ctx context.Context) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO curated_products (name, price, unit, category) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, it := range seedProducts {
		if _, err := stmt.ExecContext(ctx, it.name, it.price, it.unit, it.category); err != nil {
			return fmt.Errorf("seed %q: %w", it.name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	p.logger.Info("offers.curated.seeded", "items", len(seedProducts))
	return nil
}

// Fetch matches when every query token appears in the product name, with
// hyphens treated as spaces so "tri-tip" finds "Tri Tip Roast".
func (p *CuratedProvider) Fetch(ctx context.Context, q Query) ([]entity.Offer, error) {
	tokens := strings.Fields(strings.ReplaceAll(strings.ToLower(q.Term), "-", " "))
	if len(tokens) == 0 {
		return nil, nil
	}

	var (
		conds []string
		args  []any
	)
	for _, tok := range tokens {
		conds = append(conds, "LOWER(name) LIKE ?")
		args = append(args, "%"+tok+"%")
	}
	query := `SELECT name, price, unit, category FROM curated_products WHERE ` +
		strings.Join(conds, " AND ") + ` ORDER BY price ASC`

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("curated search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var offers []entity.Offer
	for rows.Next() {
		var (
			name, unit, category string
			price                float64
		)
		if err := rows.Scan(&name, &price, &unit, &category); err != nil {
			return nil, err
		}
		pr := price
		u := unit
		promo := "Weekly Ad - " + category
		offers = append(offers, entity.Offer{
			Provider:    p.Name(),
			Store:       p.store,
			ProductName: name,
			Price:       &pr,
			Unit:        &u,
			PromoText:   &promo,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	p.logger.Debug("offers.curated.done", "term", q.Term, "offers", len(offers))
	return offers, nil
}

type seedProduct struct {
	name     string
	price    float64
	unit     string
	category string
}

// Curated prices from a checked weekly circular. Refreshed by hand until the
// PDF pipeline is trusted enough to replace it.
var seedProducts = []seedProduct{
	{"Foster Farms Split Chicken Breasts", 1.97, "lb", "Meat & Seafood"},
	{"Fresh Pork Loin Chops", 2.97, "lb", "Meat & Seafood"},
	{"Untrimmed Tri Tip Roast", 5.97, "lb", "Meat & Seafood"},
	{"Fresh Chicken Wings", 3.99, "lb", "Meat & Seafood"},
	{"Perdue Ground Chicken", 5.99, "ea", "Meat & Seafood"},
	{"Trimmed Tri Tip Roast", 9.99, "lb", "Meat & Seafood"},
	{"Pork Shoulder Roast", 3.99, "lb", "Meat & Seafood"},
	{"Natural Chuck Roast", 9.99, "lb", "Meat & Seafood"},
	{"Cold Water Lobster Tail", 6.99, "ea", "Meat & Seafood"},
	{"Fresh Tilapia Fillets", 7.99, "lb", "Meat & Seafood"},
	{"Hass Avocados", 0.97, "ea", "Produce"},
	{"Cucumbers", 0.97, "ea", "Produce"},
	{"Green Bell Peppers", 0.97, "ea", "Produce"},
	{"Envy Apples", 1.77, "lb", "Produce"},
	{"Honeycrisp Apples", 1.77, "lb", "Produce"},
	{"Roma Tomatoes", 1.99, "lb", "Produce"},
	{"Green Grapes", 3.99, "lb", "Produce"},
	{"Organic Carrot Bunch", 2.99, "ea", "Produce"},
	{"Brussels Sprouts", 2.49, "lb", "Produce"},
	{"Pomegranates", 2.99, "ea", "Produce"},
	{"Fuyu Persimmons", 1.99, "ea", "Produce"},
	{"Hard Squash", 1.29, "lb", "Produce"},
	{"Fresh Blueberries", 4.97, "ea", "Frozen & Refrigerated"},
	{"Cage Free Eggs", 4.97, "ea", "Frozen & Refrigerated"},
	{"Danish Creamery Butter", 3.97, "ea", "Frozen & Refrigerated"},
	{"DiGiorno Pizza", 4.97, "ea", "Frozen & Refrigerated"},
	{"Raw EZ Peel Jumbo Shrimp", 5.97, "lb", "Frozen & Refrigerated"},
	{"Ben & Jerry's Gelato", 4.47, "ea", "Frozen & Refrigerated"},
	{"Ball Park Beef Franks", 4.97, "ea", "Frozen & Refrigerated"},
	{"Gatorade", 1.25, "ea", "Beverages"},
	{"Peet's Coffee", 8.99, "ea", "Beverages"},
	{"Coca-Cola 2 liter", 2.48, "ea", "Beverages"},
	{"Coca-Cola 6-pack", 3.97, "ea", "Beverages"},
	{"Apothic Wine", 7.99, "ea", "Wine & Spirits"},
	{"La Crema Monterey", 17.99, "ea", "Wine & Spirits"},
	{"Jack Daniel's Whiskey", 17.99, "ea", "Wine & Spirits"},
	{"Fireball Cinnamon Whisky", 11.99, "ea", "Wine & Spirits"},
	{"Yoplait Yogurt", 0.39, "ea", "Pantry Essentials"},
	{"S&W Beans", 1.25, "ea", "Pantry Essentials"},
	{"Campbell's Chunky Soup", 3.00, "ea", "Pantry Essentials"},
	{"Mac & Cheese Dinner", 0.98, "ea", "Pantry Essentials"},
	{"Cream Cheese Tub", 2.99, "ea", "Pantry Essentials"},
	{"Rosarita Refried Beans", 0.37, "ea", "Pantry Essentials"},
}
