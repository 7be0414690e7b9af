// Package seed loads the demo catalog, accounts and store settings into
// empty databases.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"akstore/internal/auth"
	"akstore/internal/brands"
	"akstore/internal/categories"
	"akstore/internal/db"
	"akstore/internal/domain/brand"
	"akstore/internal/domain/category"
	"akstore/internal/domain/product"
	"akstore/internal/domain/settings"
	"akstore/internal/domain/user"
	"akstore/internal/products"
	settingsrepo "akstore/internal/settings"
	"akstore/internal/util"
)

//go:embed seed.yaml
var seedYAML []byte

// catalogEpoch is the createdAt of the first seeded product; later ones are a second older each.
var catalogEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type Data struct {
	Categories []category.Category
	Brands     []brand.Brand
	Products   []product.Product
	Users      []Account
	Settings   settings.StoreSettings
}

// Account is a seeded user with its plain password, hashed on insert.
type Account struct {
	user.User
	Password string
}

type document struct {
	Categories []struct {
		ID    string `yaml:"id"`
		Name  string `yaml:"name"`
		Image string `yaml:"image"`
	} `yaml:"categories"`
	Brands []struct {
		ID          string   `yaml:"id"`
		Name        string   `yaml:"name"`
		Logo        string   `yaml:"logo"`
		CategoryIDs []string `yaml:"category_ids"`
	} `yaml:"brands"`
	Products []productDoc `yaml:"products"`
	Users    []struct {
		ID        string   `yaml:"id"`
		Name      string   `yaml:"name"`
		Email     string   `yaml:"email"`
		Phone     string   `yaml:"phone"`
		Addresses []string `yaml:"addresses"`
		Role      string   `yaml:"role"`
		Password  string   `yaml:"password"`
	} `yaml:"users"`
	Settings struct {
		Logo   string `yaml:"logo"`
		Slides []struct {
			ID       string `yaml:"id"`
			Image    string `yaml:"image"`
			Title    string `yaml:"title"`
			Subtitle string `yaml:"subtitle"`
			Link     string `yaml:"link"`
		} `yaml:"slides"`
	} `yaml:"settings"`
}

type productDoc struct {
	ID               string    `yaml:"id"`
	Name             string    `yaml:"name"`
	Brand            string    `yaml:"brand"`
	Category         string    `yaml:"category"`
	Price            int64     `yaml:"price"`
	OriginalPrice    *int64    `yaml:"originalPrice"`
	Images           []string  `yaml:"images"`
	Description      string    `yaml:"description"`
	ShortDescription string    `yaml:"shortDescription"`
	Specs            yaml.Node `yaml:"specs"`
	Options          yaml.Node `yaml:"options"`
	Reviews          []struct {
		ID      int64  `yaml:"id"`
		Author  string `yaml:"author"`
		Rating  int    `yaml:"rating"`
		Comment string `yaml:"comment"`
		Date    string `yaml:"date"`
	} `yaml:"reviews"`
	IsFeatured   bool `yaml:"isFeatured"`
	IsBestSeller bool `yaml:"isBestSeller"`
}

// Load parses the embedded seed file.
func Load() (Data, error) {
	return Parse(seedYAML)
}

func Parse(raw []byte) (Data, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Data{}, fmt.Errorf("seed: %w", err)
	}

	var out Data
	for _, c := range doc.Categories {
		out.Categories = append(out.Categories, category.Category{ID: c.ID, Name: c.Name, Image: c.Image})
	}
	for _, b := range doc.Brands {
		out.Brands = append(out.Brands, brand.Brand{ID: b.ID, Name: b.Name, Logo: b.Logo, CategoryIDs: b.CategoryIDs})
	}
	for i, pd := range doc.Products {
		p, err := pd.toProduct(catalogEpoch.Add(-time.Duration(i) * time.Second))
		if err != nil {
			return Data{}, fmt.Errorf("seed: product %s: %w", pd.ID, err)
		}
		out.Products = append(out.Products, p)
	}
	for _, u := range doc.Users {
		addrs := u.Addresses
		if addrs == nil {
			addrs = []string{}
		}
		out.Users = append(out.Users, Account{
			User: user.User{
				ID:        u.ID,
				Name:      u.Name,
				Email:     u.Email,
				Phone:     u.Phone,
				Addresses: addrs,
				Role:      user.Role(u.Role),
				CreatedAt: catalogEpoch.UnixMilli(),
			},
			Password: u.Password,
		})
	}
	out.Settings = settings.StoreSettings{Logo: doc.Settings.Logo, Slides: []settings.Slide{}}
	for _, s := range doc.Settings.Slides {
		out.Settings.Slides = append(out.Settings.Slides, settings.Slide{
			ID: s.ID, Image: s.Image, Title: s.Title, Subtitle: s.Subtitle, Link: s.Link,
		})
	}
	return out, nil
}

// toProduct recomputes rating and reviewCount from the listed reviews.
func (pd productDoc) toProduct(createdAt time.Time) (product.Product, error) {
	specs, err := orderedMap[string](&pd.Specs)
	if err != nil {
		return product.Product{}, fmt.Errorf("specs: %w", err)
	}
	options, err := orderedMap[[]string](&pd.Options)
	if err != nil {
		return product.Product{}, fmt.Errorf("options: %w", err)
	}

	p := product.Product{
		ID:               pd.ID,
		Name:             pd.Name,
		Brand:            pd.Brand,
		Category:         pd.Category,
		Price:            pd.Price,
		OriginalPrice:    pd.OriginalPrice,
		Images:           pd.Images,
		Description:      pd.Description,
		ShortDescription: pd.ShortDescription,
		Specs:            specs,
		Options:          options,
		Reviews:          []product.Review{},
		IsFeatured:       pd.IsFeatured,
		IsBestSeller:     pd.IsBestSeller,
		CreatedAt:        createdAt.UnixMilli(),
	}
	ratings := make([]int, 0, len(pd.Reviews))
	for _, rv := range pd.Reviews {
		date, err := time.Parse(time.DateOnly, rv.Date)
		if err != nil {
			return product.Product{}, fmt.Errorf("review %d date: %w", rv.ID, err)
		}
		p.Reviews = append(p.Reviews, product.Review{
			ID: rv.ID, Author: rv.Author, Rating: rv.Rating, Comment: rv.Comment, Date: util.TimestampOf(date),
		})
		ratings = append(ratings, rv.Rating)
	}
	p.Rating = products.AverageRating(ratings)
	p.ReviewCount = len(ratings)
	return p, nil
}

func orderedMap[V any](n *yaml.Node) (product.OrderedMap[V], error) {
	var m product.OrderedMap[V]
	if n.Kind == 0 {
		return m, nil
	}
	if n.Kind != yaml.MappingNode {
		return m, fmt.Errorf("line %d: expected a mapping", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		var v V
		if err := n.Content[i+1].Decode(&v); err != nil {
			return m, fmt.Errorf("key %q: %w", n.Content[i].Value, err)
		}
		m.Set(n.Content[i].Value, v)
	}
	return m, nil
}

// Apply seeds whatever is missing: accounts and settings when the settings row
// is absent from system, the catalog when app has no categories.
func Apply(ctx context.Context, app, system *db.DB) error {
	data, err := Load()
	if err != nil {
		return err
	}
	return ApplyData(ctx, app, system, data)
}

func ApplyData(ctx context.Context, app, system *db.DB, data Data) error {
	hasSettings, err := settingsrepo.NewRepo(system).Exists(ctx)
	if err != nil {
		return err
	}
	if !hasSettings {
		if err := seedSystem(ctx, system, data); err != nil {
			return fmt.Errorf("seed accounts: %w", err)
		}
		slog.Info("seeded accounts and store settings", "users", len(data.Users))
	}

	var n int
	if err := app.QueryRow(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		if err := seedCatalog(ctx, app, data); err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		slog.Info("seeded catalog", "categories", len(data.Categories), "brands", len(data.Brands), "products", len(data.Products))
	}
	return nil
}

func seedSystem(ctx context.Context, system *db.DB, data Data) error {
	tx, err := system.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, a := range data.Users {
		hash, err := auth.HashPassword(a.Password)
		if err != nil {
			return err
		}
		if err := auth.Insert(ctx, tx, a.User, hash); err != nil {
			return err
		}
	}
	if err := settingsrepo.Save(ctx, tx, data.Settings); err != nil {
		return err
	}
	return tx.Commit()
}

func seedCatalog(ctx context.Context, app *db.DB, data Data) error {
	tx, err := app.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, c := range data.Categories {
		if err := categories.Insert(ctx, tx, c); err != nil {
			return err
		}
	}
	for _, b := range data.Brands {
		if err := brands.Insert(ctx, tx, b); err != nil {
			return err
		}
	}
	for _, p := range data.Products {
		if err := products.Insert(ctx, tx, p); err != nil {
			return err
		}
	}
	return tx.Commit()
}
