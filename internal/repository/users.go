package repository

import (
	"context"
	"errors"
	"strings"

	"gamevault_back_end/internal/database"
	"gamevault_back_end/internal/models"

	"github.com/gocql/gocql"
)

var (
	ErrUserNotFound  = errors.New("utilisateur introuvable")
	ErrEmailTaken    = errors.New("cet e-mail est déjà utilisé")
	ErrUsernameTaken = errors.New("ce nom d'utilisateur est déjà pris")
)

// UserRepo stocke les comptes dans le keyspace users. Les tables
// users_by_email et users_by_username servent de verrous d'unicité: la
// ligne de lookup est posée par LWT avant l'insertion du compte.
type UserRepo struct{}

const userColumns = `user_id, username, email, password, role, avatar_url, provider, created_at`

func (UserRepo) Create(ctx context.Context, u models.User) error {
	session, err := database.GetUsersSession()
	if err != nil {
		return err
	}

	email := strings.ToLower(u.Email)

	m := map[string]interface{}{}
	applied, err := session.Query(`INSERT INTO users_by_email (email, user_id) VALUES (?, ?) IF NOT EXISTS`,
		email, u.ID).
		WithContext(ctx).
		MapScanCAS(m)
	if err != nil {
		return err
	}
	if !applied {
		return ErrEmailTaken
	}

	m = map[string]interface{}{}
	applied, err = session.Query(`INSERT INTO users_by_username (username, user_id) VALUES (?, ?) IF NOT EXISTS`,
		u.Username, u.ID).
		WithContext(ctx).
		MapScanCAS(m)
	if err != nil {
		return err
	}
	if !applied {
		// Rendre le verrou e-mail pour que l'inscription puisse être retentée.
		session.Query(`DELETE FROM users_by_email WHERE email = ?`, email).WithContext(ctx).Exec()
		return ErrUsernameTaken
	}

	return session.Query(`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, email, u.Password, u.Role, u.AvatarURL, u.Provider, u.CreatedAt).
		WithContext(ctx).
		Exec()
}

func (UserRepo) ByID(ctx context.Context, userID string) (models.User, error) {
	session, err := database.GetUsersSession()
	if err != nil {
		return models.User{}, err
	}

	var u models.User
	err = session.Query(`SELECT `+userColumns+` FROM users WHERE user_id = ?`, userID).
		WithContext(ctx).
		Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.Role, &u.AvatarURL, &u.Provider, &u.CreatedAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (r UserRepo) ByEmail(ctx context.Context, email string) (models.User, error) {
	session, err := database.GetUsersSession()
	if err != nil {
		return models.User{}, err
	}

	var userID string
	err = session.Query(`SELECT user_id FROM users_by_email WHERE email = ?`, strings.ToLower(email)).
		WithContext(ctx).
		Scan(&userID)
	if errors.Is(err, gocql.ErrNotFound) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return r.ByID(ctx, userID)
}

func (r UserRepo) ByUsername(ctx context.Context, username string) (models.User, error) {
	session, err := database.GetUsersSession()
	if err != nil {
		return models.User{}, err
	}

	var userID string
	err = session.Query(`SELECT user_id FROM users_by_username WHERE username = ?`, username).
		WithContext(ctx).
		Scan(&userID)
	if errors.Is(err, gocql.ErrNotFound) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return r.ByID(ctx, userID)
}

// ByIdentifier accepte un e-mail ou un nom d'utilisateur.
func (r UserRepo) ByIdentifier(ctx context.Context, identifier string) (models.User, error) {
	if strings.Contains(identifier, "@") {
		return r.ByEmail(ctx, identifier)
	}
	return r.ByUsername(ctx, identifier)
}

func (UserRepo) UpdateProfile(ctx context.Context, userID, username, avatarURL string) error {
	session, err := database.GetUsersSession()
	if err != nil {
		return err
	}
	return session.Query(`UPDATE users SET username = ?, avatar_url = ? WHERE user_id = ?`,
		username, avatarURL, userID).
		WithContext(ctx).
		Exec()
}

func (UserRepo) UpdateAvatar(ctx context.Context, userID, avatarURL string) error {
	session, err := database.GetUsersSession()
	if err != nil {
		return err
	}
	return session.Query(`UPDATE users SET avatar_url = ? WHERE user_id = ?`, avatarURL, userID).
		WithContext(ctx).
		Exec()
}

func (UserRepo) All(ctx context.Context) ([]models.User, error) {
	session, err := database.GetUsersSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`SELECT ` + userColumns + ` FROM users`).WithContext(ctx).Iter()

	var users []models.User
	var u models.User
	for iter.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.Role, &u.AvatarURL, &u.Provider, &u.CreatedAt) {
		users = append(users, u)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return users, nil
}
