package recipe

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

const bucketName = "recipes"

// ErrNotFound is returned when a recipe ID is unknown
var ErrNotFound = errors.New("recipe not found")

// DB defines the interface for database operations
type DB interface {
	// SaveRecipe inserts or replaces a recipe
	SaveRecipe(recipe *Recipe) error

	// GetRecipe retrieves a recipe by ID
	GetRecipe(id string) (*Recipe, error)

	// ListRecipes returns all recipes, newest first
	ListRecipes() ([]*Recipe, error)

	// DeleteRecipe removes a recipe from the database
	DeleteRecipe(id string) error

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveRecipe saves a recipe to the database
func (b *BoltDB) SaveRecipe(recipe *Recipe) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(recipe)
		if err != nil {
			return fmt.Errorf("marshaling recipe: %w", err)
		}
		return tx.Bucket([]byte(bucketName)).Put([]byte(recipe.ID), data)
	})
}

// GetRecipe retrieves a recipe by ID
func (b *BoltDB) GetRecipe(id string) (*Recipe, error) {
	var recipe *Recipe
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return json.Unmarshal(data, &recipe)
	})
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

// ListRecipes returns all recipes, newest first
func (b *BoltDB) ListRecipes() ([]*Recipe, error) {
	recipes := make([]*Recipe, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(func(k, v []byte) error {
			var recipe Recipe
			if err := json.Unmarshal(v, &recipe); err != nil {
				return fmt.Errorf("unmarshaling recipe %s: %w", k, err)
			}
			recipes = append(recipes, &recipe)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(recipes, func(i, j int) bool {
		return recipes[i].CreatedAt.After(recipes[j].CreatedAt)
	})
	return recipes, nil
}

// DeleteRecipe removes a recipe from the database
func (b *BoltDB) DeleteRecipe(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		if bucket.Get([]byte(id)) == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return bucket.Delete([]byte(id))
	})
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
