package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/pageza/macromeal-backend/internal/types"
)

// JSONBStringArray is a custom type for handling string arrays in JSONB
type JSONBStringArray []string

// Value implements the driver.Valuer interface
func (a JSONBStringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface
func (a *JSONBStringArray) Scan(value interface{}) error {
	if value == nil {
		*a = JSONBStringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// JSONBIngredients stores the ordered ingredient list as JSONB.
type JSONBIngredients []types.Ingredient

// Value implements the driver.Valuer interface
func (a JSONBIngredients) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface
func (a *JSONBIngredients) Scan(value interface{}) error {
	if value == nil {
		*a = JSONBIngredients{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// Recipe is a corpus recipe. The engine treats stored recipes as read-only;
// generated recipes are appended as new rows, never edited in place.
type Recipe struct {
	ID           uuid.UUID        `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	DeletedAt    gorm.DeletedAt   `gorm:"index" json:"-"`
	Name         string           `gorm:"size:255;not null" json:"name"`
	Description  string           `gorm:"type:text" json:"description"`
	Category     string           `gorm:"size:50" json:"category"`
	Cuisine      string           `gorm:"size:50" json:"cuisine"`
	ImageURL     string           `gorm:"size:255" json:"image_url"`
	Ingredients  JSONBIngredients `gorm:"type:jsonb;not null;default:'[]'" json:"ingredients"`
	Instructions JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"instructions"`
	Tags         JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"tags"`
	Calories     float64          `gorm:"type:float" json:"calories"`
	Protein      float64          `gorm:"type:float" json:"protein"`
	Carbs        float64          `gorm:"type:float" json:"carbs"`
	Fat          float64          `gorm:"type:float" json:"fat"`
	Generated    bool             `gorm:"default:false" json:"generated"`
	Embedding    pgvector.Vector  `gorm:"type:vector(1536)" json:"-"`
}

// BeforeCreate assigns an ID client-side so sqlite-backed tests behave like
// postgres with its gen_random_uuid default.
func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// ToType converts the stored recipe to its transport representation.
func (r *Recipe) ToType() *types.Recipe {
	return &types.Recipe{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		Category:     r.Category,
		Cuisine:      r.Cuisine,
		ImageURL:     r.ImageURL,
		Ingredients:  []types.Ingredient(r.Ingredients),
		Instructions: []string(r.Instructions),
		Tags:         []string(r.Tags),
		Calories:     r.Calories,
		ProteinG:     r.Protein,
		CarbsG:       r.Carbs,
		FatG:         r.Fat,
		Generated:    r.Generated,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// Summary returns the recipe's stored nutrition as a NutritionSummary.
func (r *Recipe) Summary() types.NutritionSummary {
	return types.NutritionSummary{
		Calories: r.Calories,
		ProteinG: r.Protein,
		CarbsG:   r.Carbs,
		FatG:     r.Fat,
	}
}
