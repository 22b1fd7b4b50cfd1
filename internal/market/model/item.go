package model

// HideoutParent is the parent/slot id given to root items listed on the flea.
const HideoutParent = "hideout"

type Item struct {
	ID       string `json:"_id"`
	Tpl      string `json:"_tpl"`
	ParentID string `json:"parentId,omitempty"`
	SlotID   string `json:"slotId,omitempty"`
	Upd      *Upd   `json:"upd,omitempty"`
}

type Upd struct {
	StackObjectsCount     int    `json:"StackObjectsCount,omitempty"`
	BuyRestrictionMax     int    `json:"BuyRestrictionMax,omitempty"`
	BuyRestrictionCurrent int    `json:"BuyRestrictionCurrent,omitempty"`
	SptPresetID           string `json:"sptPresetId,omitempty"`

	Repairable *UpdRepairable `json:"Repairable,omitempty"`
	MedKit     *UpdMedKit     `json:"MedKit,omitempty"`
	FoodDrink  *UpdFoodDrink  `json:"FoodDrink,omitempty"`
	Key        *UpdKey        `json:"Key,omitempty"`
	Resource   *UpdResource   `json:"Resource,omitempty"`
	RepairKit  *UpdRepairKit  `json:"RepairKit,omitempty"`
}

type UpdRepairable struct {
	Durability    float64 `json:"Durability"`
	MaxDurability float64 `json:"MaxDurability"`
}

type UpdMedKit struct {
	HpResource float64 `json:"HpResource"`
}

type UpdFoodDrink struct {
	HpPercent float64 `json:"HpPercent"`
}

type UpdKey struct {
	NumberOfUsages int `json:"NumberOfUsages"`
}

type UpdResource struct {
	Value float64 `json:"Value"`
}

type UpdRepairKit struct {
	Resource float64 `json:"Resource"`
}

// StackCount treats a missing or non-positive stack as a single unit.
func (it Item) StackCount() int {
	if it.Upd == nil || it.Upd.StackObjectsCount <= 0 {
		return 1
	}
	return it.Upd.StackObjectsCount
}

// EnsureUpd returns the item's upd block, creating it with a stack of one.
func (it *Item) EnsureUpd() *Upd {
	if it.Upd == nil {
		it.Upd = &Upd{StackObjectsCount: 1}
	}
	return it.Upd
}

func (it Item) Clone() Item {
	out := it
	if it.Upd != nil {
		u := *it.Upd
		if u.Repairable != nil {
			r := *u.Repairable
			u.Repairable = &r
		}
		if u.MedKit != nil {
			m := *u.MedKit
			u.MedKit = &m
		}
		if u.FoodDrink != nil {
			f := *u.FoodDrink
			u.FoodDrink = &f
		}
		if u.Key != nil {
			k := *u.Key
			u.Key = &k
		}
		if u.Resource != nil {
			r := *u.Resource
			u.Resource = &r
		}
		if u.RepairKit != nil {
			r := *u.RepairKit
			u.RepairKit = &r
		}
		out.Upd = &u
	}
	return out
}

func CloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i := range items {
		out[i] = items[i].Clone()
	}
	return out
}
