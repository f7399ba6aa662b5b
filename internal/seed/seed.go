// Package seed loads initial users from a YAML file. Plans reference users that
// only exist through registration, so a fresh deployment can be seeded with the
// owners it needs.
package seed

import (
	"bytes"
	"fmt"
	"log"
	"os"

	"nutrifit/internal/apperror"
	"nutrifit/internal/models"

	"gopkg.in/yaml.v3"
)

// User is one seeded user.
type User struct {
	Name     string `yaml:"nombre"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// File is the layout of a seed file:
//
//	usuarios:
//	  - nombre: Ana
//	    email: ana@example.com
//	    password: secreto123
type File struct {
	Users []User `yaml:"usuarios"`
}

// Registrar stores a new user. services.AuthService satisfies it.
type Registrar interface {
	RegisterUser(user *models.User) error
}

// Load reads and parses a seed file.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a seed document. Unknown keys are rejected so typos do not
// silently drop users.
func Parse(raw []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	for i, u := range f.Users {
		if u.Name == "" || u.Email == "" || u.Password == "" {
			return nil, fmt.Errorf("seed user %d: nombre, email and password are required", i+1)
		}
	}
	return &f, nil
}

// Apply registers every user in f. Users whose email is already registered are
// skipped, so applying the same file twice is harmless. It returns the number of
// users created.
func Apply(r Registrar, f *File) (int, error) {
	created := 0
	for _, u := range f.Users {
		user := &models.User{Name: u.Name, Email: u.Email, Password: u.Password}
		if err := r.RegisterUser(user); err != nil {
			if apperror.Is(err, apperror.KindConflict) {
				log.Printf("Seed user %s already exists, skipping", u.Email)
				continue
			}
			return created, fmt.Errorf("failed to seed user %s: %w", u.Email, err)
		}
		log.Printf("Seeded user: %s (ID: %d)", user.Email, user.ID)
		created++
	}
	return created, nil
}
