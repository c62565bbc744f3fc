// Package main seeds a BookClub data directory from a YAML fixture.
//
// Every user is registered and every book added through the service layer,
// so the fixture is subject to the same validation as API requests.
//
// Usage:
//
//	go run ./cmd/seed -fixture cmd/seed/testdata/library.yaml
//	DATA_PATH=/tmp/bookclub go run ./cmd/seed -fixture my-library.yaml
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bookclubapp/bookclub-server/internal/auth"
	"github.com/bookclubapp/bookclub-server/internal/config"
	"github.com/bookclubapp/bookclub-server/internal/domain"
	domainerrors "github.com/bookclubapp/bookclub-server/internal/errors"
	"github.com/bookclubapp/bookclub-server/internal/logger"
	"github.com/bookclubapp/bookclub-server/internal/search"
	"github.com/bookclubapp/bookclub-server/internal/service"
	"github.com/bookclubapp/bookclub-server/internal/store/sqlite"
)

// Fixture is the top-level YAML document.
type Fixture struct {
	Users []UserFixture `yaml:"users"`
}

// UserFixture is one account with its shelf.
type UserFixture struct {
	Email       string         `yaml:"email"`
	Password    string         `yaml:"password"`
	DisplayName string         `yaml:"display_name"`
	Bio         string         `yaml:"bio"`
	Preferences []string       `yaml:"reading_preferences"`
	Books       []BookFixture  `yaml:"books"`
	Favorite    *FavoriteEntry `yaml:"favorite_book"`
}

// FavoriteEntry pins a book to the profile.
type FavoriteEntry struct {
	Title   string `yaml:"title"`
	Authors string `yaml:"authors"`
}

// BookFixture is one shelf entry.
type BookFixture struct {
	CatalogID     string         `yaml:"catalog_id"`
	Title         string         `yaml:"title"`
	Authors       string         `yaml:"authors"`
	PublishedDate string         `yaml:"published_date"`
	Thumbnail     string         `yaml:"thumbnail"`
	Description   string         `yaml:"description"`
	Status        string         `yaml:"status"`
	Review        *ReviewFixture `yaml:"review"`
}

// ReviewFixture is a review attached at creation.
type ReviewFixture struct {
	Text         string             `yaml:"text"`
	RatingType   string             `yaml:"rating_type"`
	SimpleRating *float64           `yaml:"simple_rating"`
	Ratings      map[string]float64 `yaml:"ratings"`
}

// services is the subset of the service layer the seeder drives.
type services struct {
	auth     *service.AuthService
	library  *service.LibraryService
	profiles *service.ProfileService
}

// Summary counts what a seed run created.
type Summary struct {
	Users   int
	Skipped int
	Books   int
}

func main() {
	fixturePath := flag.String("fixture", "cmd/seed/testdata/library.yaml", "YAML fixture to load")
	dataPath := flag.String("data-path", "", "Data directory (defaults to DATA_PATH)")
	flag.Parse()

	cfg, err := config.Load(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *dataPath != "" {
		cfg.Data.BasePath = *dataPath
	}

	log := logger.New(logger.Config{Level: logger.ParseLevel(cfg.Logger.Level), Environment: cfg.App.Environment})

	fixture, err := loadFixture(*fixturePath)
	if err != nil {
		log.Fatal("Failed to read fixture", "path", *fixturePath, "error", err)
	}

	db, err := sqlite.Open(cfg.Data.DatabasePath(), log.Logger)
	if err != nil {
		log.Fatal("Failed to open database", "error", err)
	}
	defer db.Close() //nolint:errcheck // process exit

	index, err := search.NewIndex(search.Options{DataPath: cfg.Data.SearchPath(), Logger: log.Logger})
	if err != nil {
		log.Fatal("Failed to open search index", "error", err)
	}
	defer index.Close() //nolint:errcheck // process exit

	key, err := auth.LoadOrGenerateKey(cfg.Data.BasePath)
	if err != nil {
		log.Fatal("Failed to load auth key", "error", err)
	}
	tokens, err := auth.NewTokenService(hex.EncodeToString(key), cfg.Auth.AccessTokenDuration, cfg.Auth.RefreshTokenDuration)
	if err != nil {
		log.Fatal("Failed to create token service", "error", err)
	}

	sessions := service.NewSessionService(db, tokens, log.Logger)
	svc := services{
		auth:     service.NewAuthService(db, tokens, sessions, service.AuthOptions{OpenRegistration: true}, log.Logger),
		library:  service.NewLibraryService(db, index, nil, log.Logger),
		profiles: service.NewProfileService(db, log.Logger),
	}

	summary, err := seed(context.Background(), svc, fixture)
	if err != nil {
		log.Fatal("Seeding failed", "error", err)
	}
	log.Info("Seed complete",
		"users", summary.Users,
		"skipped_users", summary.Skipped,
		"books", summary.Books,
		"data_path", cfg.Data.BasePath,
	)
}

func loadFixture(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fixture Fixture
	if err := yaml.Unmarshal(raw, &fixture); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &fixture, nil
}

// seed registers each user and fills their shelf. Users whose email is
// already registered are skipped with their books.
func seed(ctx context.Context, svc services, fixture *Fixture) (Summary, error) {
	var summary Summary
	client := service.ClientInfo{IPAddress: "127.0.0.1", UserAgent: "bookclub-seed"}

	for _, u := range fixture.Users {
		resp, err := svc.auth.Register(ctx, service.RegisterRequest{
			Email:       u.Email,
			Password:    u.Password,
			DisplayName: u.DisplayName,
		}, client)
		if errors.Is(err, domainerrors.ErrAlreadyExists) {
			summary.Skipped++
			continue
		}
		if err != nil {
			return summary, fmt.Errorf("register %s: %w", u.Email, err)
		}
		summary.Users++
		ownerID := resp.User.ID

		if err := seedProfile(ctx, svc, ownerID, u); err != nil {
			return summary, fmt.Errorf("profile for %s: %w", u.Email, err)
		}

		for _, b := range u.Books {
			if _, err := svc.library.AddBook(ctx, ownerID, toAddBookRequest(b)); err != nil {
				return summary, fmt.Errorf("add %q for %s: %w", b.Title, u.Email, err)
			}
			summary.Books++
		}
	}
	return summary, nil
}

func seedProfile(ctx context.Context, svc services, ownerID string, u UserFixture) error {
	req := service.UpdateProfileRequest{ReadingPreferences: u.Preferences}
	if u.Bio != "" {
		req.Bio = &u.Bio
	}
	if u.Favorite != nil {
		req.FavoriteBook = &domain.FavoriteBook{Title: u.Favorite.Title, Authors: u.Favorite.Authors}
	}
	_, err := svc.profiles.UpdateProfile(ctx, ownerID, req)
	return err
}

func toAddBookRequest(b BookFixture) service.AddBookRequest {
	req := service.AddBookRequest{
		CatalogID:     b.CatalogID,
		Title:         b.Title,
		Authors:       b.Authors,
		PublishedDate: b.PublishedDate,
		Thumbnail:     b.Thumbnail,
		Description:   b.Description,
		Status:        b.Status,
	}
	if r := b.Review; r != nil {
		var ratings domain.Ratings
		if len(r.Ratings) > 0 {
			ratings = make(domain.Ratings, len(r.Ratings))
			for c, v := range r.Ratings {
				ratings[domain.Criterion(c)] = v
			}
		}
		req.Review = &service.ReviewInput{
			Text:         r.Text,
			RatingType:   r.RatingType,
			SimpleRating: r.SimpleRating,
			Ratings:      ratings,
		}
	}
	return req
}
