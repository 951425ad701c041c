package storage

import (
	"reflect"
	"testing"
	"time"

	"github.com/lib/pq"
)

func TestMealRowToRecipe(t *testing.T) {
	planned := time.Now()
	row := mealRow{
		ID:           "m1",
		Title:        "Soup",
		CookTime:     20,
		Servings:     2,
		Ingredients:  pq.StringArray{"leek", "potato"},
		Instructions: nil,
		PlannedDate:  &planned,
	}

	r := row.toRecipe()
	if r.ID != "m1" || r.Title != "Soup" || r.CookTime != 20 || r.Servings != 2 {
		t.Errorf("recipe = %+v", r)
	}
	if !reflect.DeepEqual(r.Ingredients, []string{"leek", "potato"}) {
		t.Errorf("ingredients = %v", r.Ingredients)
	}
	if r.Instructions == nil || len(r.Instructions) != 0 {
		t.Errorf("instructions = %#v, want empty non-nil", r.Instructions)
	}
}

func TestLimitOrAll(t *testing.T) {
	if limitOrAll(0) != -1 || limitOrAll(-3) != -1 || limitOrAll(20) != 20 {
		t.Error("limitOrAll mapping wrong")
	}
}
