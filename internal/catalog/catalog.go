package catalog

import (
	"github.com/wfunc/word-merge/internal/errors"
)

// Rarity 稀有度档位
type Rarity struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Value int    `json:"value"` // 合成计分用分值
}

// Word 词条（word为空表示无名的中间产物）
type Word struct {
	ID               int      `json:"id"`
	GUID             string   `json:"guid"`
	Word             string   `json:"word"`
	RarityID         int      `json:"rarity_id"`
	Sprite           string   `json:"sprite"`
	CombinationGUIDs []string `json:"combination_guids"`
}

// Recipe 合成配方（无序的原料GUID对 → 结果词条ID）
type Recipe struct {
	IngredientGUIDs [2]string `json:"ingredient_guids"`
	ResultID        int       `json:"result_id"`
}

// Catalog 词条目录，运行期只读
type Catalog struct {
	words    []Word
	rarities map[int]Rarity
	recipes  []Recipe

	// 查找索引
	byWord map[string]*Word
	byID   map[int]*Word
	byGUID map[string]*Word
}

// New 创建目录并建立索引
func New(rarities []Rarity, words []Word, recipes []Recipe) (*Catalog, error) {
	c := &Catalog{
		words:    words,
		rarities: make(map[int]Rarity, len(rarities)),
		recipes:  recipes,
		byWord:   make(map[string]*Word, len(words)),
		byID:     make(map[int]*Word, len(words)),
		byGUID:   make(map[string]*Word, len(words)),
	}

	for _, r := range rarities {
		c.rarities[r.ID] = r
	}

	for i := range c.words {
		w := &c.words[i]
		if _, ok := c.rarities[w.RarityID]; !ok {
			return nil, errors.Newf(errors.ErrConfigValidate, "词条 %d 引用未知稀有度 %d", w.ID, w.RarityID)
		}
		c.byID[w.ID] = w
		c.byGUID[w.GUID] = w
		if w.Word != "" {
			c.byWord[w.Word] = w
		}
	}

	for _, r := range recipes {
		if _, ok := c.byGUID[r.IngredientGUIDs[0]]; !ok {
			return nil, errors.Newf(errors.ErrConfigValidate, "配方引用未知GUID %s", r.IngredientGUIDs[0])
		}
		if _, ok := c.byGUID[r.IngredientGUIDs[1]]; !ok {
			return nil, errors.Newf(errors.ErrConfigValidate, "配方引用未知GUID %s", r.IngredientGUIDs[1])
		}
		if _, ok := c.byID[r.ResultID]; !ok {
			return nil, errors.Newf(errors.ErrConfigValidate, "配方引用未知结果ID %d", r.ResultID)
		}
	}

	return c, nil
}

// FindWord 按玩家输入的单词查找
func (c *Catalog) FindWord(word string) (*Word, bool) {
	w, ok := c.byWord[word]
	return w, ok
}

// WordByID 按词条ID查找
func (c *Catalog) WordByID(id int) (*Word, bool) {
	w, ok := c.byID[id]
	return w, ok
}

// WordByGUID 按GUID查找
func (c *Catalog) WordByGUID(guid string) (*Word, bool) {
	w, ok := c.byGUID[guid]
	return w, ok
}

// RarityOf 获取词条的稀有度
func (c *Catalog) RarityOf(w *Word) Rarity {
	return c.rarities[w.RarityID]
}

// CanCombine 判断两个词条是否可合成。
// 目录数据的可合成关系可能只声明在一侧，任一方向命中即可。
func CanCombine(a, b *Word) bool {
	for _, g := range a.CombinationGUIDs {
		if g == b.GUID {
			return true
		}
	}
	for _, g := range b.CombinationGUIDs {
		if g == a.GUID {
			return true
		}
	}
	return false
}

// FindRecipe 按无序GUID对查找配方
func (c *Catalog) FindRecipe(guidA, guidB string) (*Recipe, bool) {
	for i := range c.recipes {
		r := &c.recipes[i]
		if (r.IngredientGUIDs[0] == guidA && r.IngredientGUIDs[1] == guidB) ||
			(r.IngredientGUIDs[0] == guidB && r.IngredientGUIDs[1] == guidA) {
			return r, true
		}
	}
	return nil, false
}

// Default 返回内置的默认词条目录
func Default() *Catalog {
	c, err := New(defaultRarities(), defaultWords(), defaultRecipes())
	if err != nil {
		// 内置数据不应出错
		panic(err)
	}
	return c
}

// defaultRarities 内置稀有度档位
func defaultRarities() []Rarity {
	return []Rarity{
		{ID: 1, Name: "common", Value: 10},
		{ID: 2, Name: "epic", Value: 50},
		{ID: 3, Name: "legendary", Value: 100},
	}
}

// defaultWords 内置词条表
func defaultWords() []Word {
	return []Word{
		{ID: 1, GUID: "1111-1111", Word: "apple", RarityID: 1, Sprite: "images/apple.png", CombinationGUIDs: []string{"2222-2222"}},
		{ID: 2, GUID: "2222-2222", Word: "water", RarityID: 1, Sprite: "images/water.png", CombinationGUIDs: []string{"1111-1111"}},
		{ID: 3, GUID: "3333-3333", Word: "fire", RarityID: 2, Sprite: "images/fire.png", CombinationGUIDs: []string{"10101010-10101010"}},
		{ID: 10, GUID: "10101010-10101010", Word: "", RarityID: 2, Sprite: "images/juice.png", CombinationGUIDs: []string{"3333-3333"}},
		{ID: 20, GUID: "4444-4444", Word: "", RarityID: 3, Sprite: "images/flame.png", CombinationGUIDs: []string{}},
	}
}

// defaultRecipes 内置配方表
func defaultRecipes() []Recipe {
	return []Recipe{
		{IngredientGUIDs: [2]string{"1111-1111", "2222-2222"}, ResultID: 10},
		{IngredientGUIDs: [2]string{"10101010-10101010", "3333-3333"}, ResultID: 20},
	}
}
