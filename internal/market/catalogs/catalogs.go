package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Base classes the market cares about.
const (
	BaseItem   = "54009119af1c881c07000029"
	BaseWeapon = "5422acb9af1c889c16000029"
	BaseMoney  = "543be5dd4bdc2deb348b4569"
)

type Catalogs struct {
	Items    ItemCatalog
	Handbook Handbook
	Prices   PriceTable
}

type ItemCatalog struct {
	Defs   map[string]ItemDef
	Digest string

	// tpl -> tpls that fit into it or that it fits into
	linked map[string][]string
}

type ItemDef struct {
	ID     string    `json:"_id"`
	Name   string    `json:"_name"`
	Parent string    `json:"_parent"`
	Type   string    `json:"_type"` // "Item" or "Node"
	Props  ItemProps `json:"_props"`
}

type ItemProps struct {
	Name         string `json:"Name,omitempty"`
	ShortName    string `json:"ShortName,omitempty"`
	StackMaxSize int    `json:"StackMaxSize,omitempty"`

	MaxHpResource        float64 `json:"MaxHpResource,omitempty"`
	MaxDurability        float64 `json:"MaxDurability,omitempty"`
	MaxResource          float64 `json:"MaxResource,omitempty"`
	MaximumNumberOfUsage int     `json:"MaximumNumberOfUsage,omitempty"`
	MaxRepairResource    float64 `json:"MaxRepairResource,omitempty"`

	RagFairCommissionModifier float64 `json:"RagFairCommissionModifier,omitempty"`
	CanSellOnRagfair          *bool   `json:"CanSellOnRagfair,omitempty"`

	Slots      []Slot `json:"Slots,omitempty"`
	Chambers   []Slot `json:"Chambers,omitempty"`
	Cartridges []Slot `json:"Cartridges,omitempty"`
}

type Slot struct {
	Name  string    `json:"_name"`
	Props SlotProps `json:"_props"`
}

type SlotProps struct {
	Filters []SlotFilter `json:"filters"`
}

type SlotFilter struct {
	Filter []string `json:"Filter"`
}

type Handbook struct {
	Categories []HandbookCategory `json:"Categories"`
	Items      []HandbookItem     `json:"Items"`
	Digest     string             `json:"-"`

	prices       map[string]float64
	categoryByID map[string]HandbookCategory
	childCats    map[string][]string
	itemsByCat   map[string][]string
}

type HandbookCategory struct {
	ID       string `json:"Id"`
	ParentID string `json:"ParentId"`
}

type HandbookItem struct {
	ID       string  `json:"Id"`
	ParentID string  `json:"ParentId"`
	Price    float64 `json:"Price"`
}

// PriceTable is the static flea price per tpl, used when no live offers exist.
type PriceTable struct {
	ByTpl  map[string]float64
	Digest string
}

func Load(dir string) (*Catalogs, error) {
	var c Catalogs
	if err := loadItems(filepath.Join(dir, "items.json"), &c.Items); err != nil {
		return nil, err
	}
	if err := loadHandbook(filepath.Join(dir, "handbook.json"), &c.Handbook); err != nil {
		return nil, err
	}
	if err := loadPrices(filepath.Join(dir, "prices.json"), &c.Prices); err != nil {
		return nil, err
	}
	return &c, nil
}

// Digest identifies the whole reference data set.
func (c *Catalogs) Digest() string {
	return sha256Hex([]byte(c.Items.Digest + ":" + c.Handbook.Digest + ":" + c.Prices.Digest))
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadItems(path string, out *ItemCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []ItemDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	out.Defs = make(map[string]ItemDef, len(defs))
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("items.json: empty _id")
		}
		if _, dup := out.Defs[d.ID]; dup {
			return fmt.Errorf("items.json: duplicate _id %s", d.ID)
		}
		out.Defs[d.ID] = d
	}
	out.buildLinked()
	return nil
}

func loadHandbook(path string, out *Handbook) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("handbook.json: %w", err)
	}
	out.index()
	return nil
}

func loadPrices(path string, out *PriceTable) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		// A deployment without a price dump falls back to the handbook.
		if os.IsNotExist(err) {
			out.ByTpl = map[string]float64{}
			out.Digest = sha256Hex(nil)
			return nil
		}
		return err
	}
	out.Digest = sha256Hex(raw)
	out.ByTpl = map[string]float64{}
	if err := json.Unmarshal(raw, &out.ByTpl); err != nil {
		return fmt.Errorf("prices.json: %w", err)
	}
	return nil
}

func (c *ItemCatalog) Get(tpl string) (ItemDef, bool) {
	d, ok := c.Defs[tpl]
	return d, ok
}

// IsOfBaseClass walks the parent chain of tpl looking for base.
func (c *ItemCatalog) IsOfBaseClass(tpl, base string) bool {
	seen := 0
	for cur := tpl; cur != "" && seen <= len(c.Defs); seen++ {
		if cur == base {
			return true
		}
		d, ok := c.Defs[cur]
		if !ok {
			return false
		}
		cur = d.Parent
	}
	return false
}

func (c *ItemCatalog) IsWeapon(tpl string) bool { return c.IsOfBaseClass(tpl, BaseWeapon) }

// Title is the display name used when sorting offers by title.
func (c *ItemCatalog) Title(tpl string) string {
	d, ok := c.Defs[tpl]
	if !ok {
		return tpl
	}
	if d.Props.Name != "" {
		return d.Props.Name
	}
	return d.Name
}

func (c *ItemCatalog) StackMax(tpl string) int {
	if d, ok := c.Defs[tpl]; ok && d.Props.StackMaxSize > 0 {
		return d.Props.StackMaxSize
	}
	return 1
}

// CommissionModifier scales the listing fee of tpl; 1 when the item declares none.
func (c *ItemCatalog) CommissionModifier(tpl string) float64 {
	if d, ok := c.Defs[tpl]; ok && d.Props.RagFairCommissionModifier > 0 {
		return d.Props.RagFairCommissionModifier
	}
	return 1
}

func (c *ItemCatalog) Sellable(tpl string) bool {
	d, ok := c.Defs[tpl]
	if !ok || d.Type == "Node" {
		return false
	}
	return d.Props.CanSellOnRagfair == nil || *d.Props.CanSellOnRagfair
}

// Linked returns the tpls compatible with tpl in either direction.
func (c *ItemCatalog) Linked(tpl string) []string {
	return c.linked[tpl]
}

// Tpls returns every sellable item tpl in sorted order.
func (c *ItemCatalog) Tpls() []string {
	out := make([]string, 0, len(c.Defs))
	for id := range c.Defs {
		if c.Sellable(id) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func (c *ItemCatalog) buildLinked() {
	sets := map[string]map[string]struct{}{}
	add := func(a, b string) {
		if sets[a] == nil {
			sets[a] = map[string]struct{}{}
		}
		sets[a][b] = struct{}{}
	}
	for id, d := range c.Defs {
		for _, group := range [][]Slot{d.Props.Slots, d.Props.Chambers, d.Props.Cartridges} {
			for _, s := range group {
				for _, f := range s.Props.Filters {
					for _, tpl := range f.Filter {
						add(id, tpl)
						add(tpl, id)
					}
				}
			}
		}
	}
	c.linked = make(map[string][]string, len(sets))
	for id, set := range sets {
		list := make([]string, 0, len(set))
		for tpl := range set {
			list = append(list, tpl)
		}
		sort.Strings(list)
		c.linked[id] = list
	}
}

// FleaPrice is the static price of tpl: the price table, then the handbook.
func (c *Catalogs) FleaPrice(tpl string) (float64, bool) {
	if p, ok := c.Prices.ByTpl[tpl]; ok && p > 0 {
		return p, true
	}
	return c.Handbook.Price(tpl)
}
