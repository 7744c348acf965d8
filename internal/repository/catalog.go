package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gamevault_back_end/internal/database"
	"gamevault_back_end/internal/models"

	"github.com/gocql/gocql"
)

// CatalogRepo lit le catalogue de jeux dans le keyspace games.
type CatalogRepo struct{}

func (CatalogRepo) GamesByIDs(ctx context.Context, ids []int) (map[int]models.Game, error) {
	session, err := database.GetGamesSession()
	if err != nil {
		return nil, err
	}

	games := make(map[int]models.Game, len(ids))
	for _, id := range ids {
		var g models.Game
		err := session.Query(`SELECT game_id, name, price, category_id, image_url
		                      FROM games WHERE game_id = ?`, id).
			WithContext(ctx).
			Scan(&g.ID, &g.Name, &g.Price, &g.CategoryID, &g.ImageURL)
		if errors.Is(err, gocql.ErrNotFound) {
			// Jeu retiré du catalogue: absent de la map, le moteur filtre.
			continue
		}
		if err != nil {
			return nil, err
		}
		games[g.ID] = g
	}
	return games, nil
}

func (CatalogRepo) GameByID(ctx context.Context, id int) (models.Game, error) {
	session, err := database.GetGamesSession()
	if err != nil {
		return models.Game{}, err
	}

	var g models.Game
	var releaseDate time.Time
	err = session.Query(`SELECT game_id, name, price, category_id, image_url, description, release_date, sales_count
	                     FROM games WHERE game_id = ?`, id).
		WithContext(ctx).
		Scan(&g.ID, &g.Name, &g.Price, &g.CategoryID, &g.ImageURL, &g.Description, &releaseDate, &g.SalesCount)
	if err != nil {
		return models.Game{}, err
	}
	if !releaseDate.IsZero() {
		g.ReleaseDate = &releaseDate
	}
	return g, nil
}

func (CatalogRepo) AllGames(ctx context.Context) ([]models.Game, error) {
	session, err := database.GetGamesSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`SELECT game_id, name, price, category_id, image_url, description, release_date, sales_count
		FROM games`).WithContext(ctx).Iter()

	var games []models.Game
	for {
		var g models.Game
		var releaseDate time.Time
		if !iter.Scan(&g.ID, &g.Name, &g.Price, &g.CategoryID, &g.ImageURL, &g.Description, &releaseDate, &g.SalesCount) {
			break
		}
		if !releaseDate.IsZero() {
			r := releaseDate
			g.ReleaseDate = &r
		}
		games = append(games, g)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return games, nil
}

func (CatalogRepo) Categories(ctx context.Context) ([]models.Category, error) {
	session, err := database.GetGamesSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`SELECT category_id, name FROM categories`).WithContext(ctx).Iter()

	var categories []models.Category
	var cat models.Category
	for iter.Scan(&cat.ID, &cat.Name) {
		categories = append(categories, cat)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return categories, nil
}

// NextGameID alloue un identifiant séquentiel par CAS sur la table
// id_allocators.
func (CatalogRepo) NextGameID(ctx context.Context) (int, error) {
	return nextID(ctx, "games")
}

func (CatalogRepo) NextCategoryID(ctx context.Context) (int, error) {
	return nextID(ctx, "categories")
}

func nextID(ctx context.Context, name string) (int, error) {
	session, err := database.GetGamesSession()
	if err != nil {
		return 0, err
	}

	for attempt := 0; attempt < 10; attempt++ {
		var next int
		err := session.Query(`SELECT next_id FROM id_allocators WHERE name = ?`, name).
			WithContext(ctx).
			Scan(&next)
		if errors.Is(err, gocql.ErrNotFound) {
			m := map[string]interface{}{}
			applied, err := session.Query(`INSERT INTO id_allocators (name, next_id) VALUES (?, 2) IF NOT EXISTS`, name).
				WithContext(ctx).
				MapScanCAS(m)
			if err != nil {
				return 0, err
			}
			if applied {
				return 1, nil
			}
			continue
		}
		if err != nil {
			return 0, err
		}

		var current int
		applied, err := session.Query(`UPDATE id_allocators SET next_id = ? WHERE name = ? IF next_id = ?`,
			next+1, name, next).
			WithContext(ctx).
			ScanCAS(&current)
		if err != nil {
			return 0, err
		}
		if applied {
			return next, nil
		}
	}
	return 0, fmt.Errorf("échec allocation id pour %s: trop de conflits CAS", name)
}

func (CatalogRepo) SaveGame(ctx context.Context, g models.Game) error {
	session, err := database.GetGamesSession()
	if err != nil {
		return err
	}

	var releaseDate time.Time
	if g.ReleaseDate != nil {
		releaseDate = *g.ReleaseDate
	}

	return session.Query(`INSERT INTO games (game_id, name, price, category_id, image_url, description, release_date, sales_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Name, g.Price, g.CategoryID, g.ImageURL, g.Description, releaseDate, g.SalesCount, g.CreatedAt, g.UpdatedAt).
		WithContext(ctx).
		Exec()
}

func (CatalogRepo) DeleteGame(ctx context.Context, id int) error {
	session, err := database.GetGamesSession()
	if err != nil {
		return err
	}
	return session.Query(`DELETE FROM games WHERE game_id = ?`, id).WithContext(ctx).Exec()
}

// BumpSales incrémente le compteur de ventes. Statistique d'affichage
// uniquement, pas besoin de CAS.
func (c CatalogRepo) BumpSales(ctx context.Context, ids []int) error {
	session, err := database.GetGamesSession()
	if err != nil {
		return err
	}

	for _, id := range ids {
		var sales int
		err := session.Query(`SELECT sales_count FROM games WHERE game_id = ?`, id).
			WithContext(ctx).
			Scan(&sales)
		if err != nil {
			continue
		}
		if err := session.Query(`UPDATE games SET sales_count = ? WHERE game_id = ?`, sales+1, id).
			WithContext(ctx).
			Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (CatalogRepo) SaveCategory(ctx context.Context, cat models.Category) error {
	session, err := database.GetGamesSession()
	if err != nil {
		return err
	}
	return session.Query(`INSERT INTO categories (category_id, name) VALUES (?, ?)`,
		cat.ID, cat.Name).
		WithContext(ctx).
		Exec()
}

func (CatalogRepo) DeleteCategory(ctx context.Context, id int) error {
	session, err := database.GetGamesSession()
	if err != nil {
		return err
	}
	return session.Query(`DELETE FROM categories WHERE category_id = ?`, id).WithContext(ctx).Exec()
}
