package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindWord(t *testing.T) {
	c := Default()

	tests := []struct {
		name  string
		word  string
		found bool
		guid  string
	}{
		{name: "已知单词", word: "apple", found: true, guid: "1111-1111"},
		{name: "未知单词", word: "banana", found: false},
		{name: "空字符串", word: "", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, ok := c.FindWord(tt.word)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.guid, w.GUID)
			}
		})
	}
}

func TestCanCombine(t *testing.T) {
	c := Default()
	apple, _ := c.FindWord("apple")
	water, _ := c.FindWord("water")
	fire, _ := c.FindWord("fire")

	// 双向匹配：任一方声明即可
	assert.True(t, CanCombine(apple, water))
	assert.True(t, CanCombine(water, apple))
	assert.False(t, CanCombine(apple, fire))
	assert.False(t, CanCombine(fire, water))
}

func TestFindRecipeUnordered(t *testing.T) {
	c := Default()

	r1, ok := c.FindRecipe("1111-1111", "2222-2222")
	require.True(t, ok)
	r2, ok := c.FindRecipe("2222-2222", "1111-1111")
	require.True(t, ok)
	assert.Equal(t, r1.ResultID, r2.ResultID)
	assert.Equal(t, 10, r1.ResultID)

	_, ok = c.FindRecipe("1111-1111", "3333-3333")
	assert.False(t, ok)
}

func TestRarityOf(t *testing.T) {
	c := Default()
	fire, _ := c.FindWord("fire")
	assert.Equal(t, "epic", c.RarityOf(fire).Name)
	assert.Equal(t, 50, c.RarityOf(fire).Value)
}

func TestNewValidation(t *testing.T) {
	rarities := []Rarity{{ID: 1, Name: "common", Value: 10}}

	tests := []struct {
		name    string
		words   []Word
		recipes []Recipe
		wantErr bool
	}{
		{
			name:    "合法目录",
			words:   []Word{{ID: 1, GUID: "g1", Word: "a", RarityID: 1}},
			wantErr: false,
		},
		{
			name:    "词条引用未知稀有度",
			words:   []Word{{ID: 1, GUID: "g1", Word: "a", RarityID: 9}},
			wantErr: true,
		},
		{
			name:    "配方引用未知产物",
			words:   []Word{{ID: 1, GUID: "g1", Word: "a", RarityID: 1}},
			recipes: []Recipe{{IngredientGUIDs: [2]string{"g1", "g1"}, ResultID: 99}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(rarities, tt.words, tt.recipes)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
