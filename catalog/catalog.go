// Package catalog holds the static card data of the game: establishments,
// landmarks and the setup constants for a new game.
package catalog

// Color groups establishments by when they fire during roll resolution.
type Color string

const (
	Red    Color = "red"
	Blue   Color = "blue"
	Green  Color = "green"
	Purple Color = "purple"
)

// Icon is the symbol printed on an establishment.
type Icon string

const (
	IconWheat   Icon = "wheat"
	IconCow     Icon = "cow"
	IconBread   Icon = "bread"
	IconCup     Icon = "cup"
	IconGear    Icon = "gear"
	IconFactory Icon = "factory"
	IconFruit   Icon = "fruit"
)

// EffectKind tags the payout variant of an establishment.
type EffectKind string

const (
	EffectBank        EffectKind = "bank"
	EffectSteal       EffectKind = "steal"
	EffectStealEach   EffectKind = "stealEach"
	EffectBankPerIcon EffectKind = "bankPerIcon"
	EffectStealChoice EffectKind = "stealChoice"
	EffectSwap        EffectKind = "swap"
)

// Effect describes what an establishment pays when it activates.
// Icons is only set for EffectBankPerIcon.
type Effect struct {
	Kind   EffectKind `json:"kind"`
	Amount int        `json:"amount,omitempty"`
	Icons  []Icon     `json:"icons,omitempty"`
}

// Establishment is a purchasable property card.
type Establishment struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Color      Color  `json:"color"`
	Cost       int    `json:"cost"`
	Activation []int  `json:"activation"`
	Icon       Icon   `json:"icon"`
	Effect     Effect `json:"effect"`
	// MaxOwned caps how many copies one player may hold. Zero means no cap.
	MaxOwned int `json:"max_owned,omitempty"`
	// Index is the card's position in the catalog and fixes iteration order.
	Index int `json:"-"`
}

// Activates reports whether the dice total triggers this card.
func (e Establishment) Activates(roll int) bool {
	for _, n := range e.Activation {
		if n == roll {
			return true
		}
	}
	return false
}

// Landmark is a one-time building granting a permanent ability.
type Landmark struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Cost        int    `json:"cost"`
	Description string `json:"description"`
	Index       int    `json:"-"`
}

// Establishment ids.
const (
	WheatField              = "wheat-field"
	Ranch                   = "ranch"
	Bakery                  = "bakery"
	Cafe                    = "cafe"
	ConvenienceStore        = "convenience-store"
	Forest                  = "forest"
	Stadium                 = "stadium"
	TVStation               = "tv-station"
	BusinessCenter          = "business-center"
	CheeseFactory           = "cheese-factory"
	FurnitureFactory        = "furniture-factory"
	Mine                    = "mine"
	FamilyRestaurant        = "family-restaurant"
	AppleOrchard            = "apple-orchard"
	FruitAndVegetableMarket = "fruit-and-vegetable-market"
)

// Landmark ids.
const (
	TrainStation  = "train-station"
	ShoppingMall  = "shopping-mall"
	AmusementPark = "amusement-park"
	RadioTower    = "radio-tower"
)

// Setup constants for a new game.
const (
	StartingCoins = 3
	MinPlayers    = 2
	MaxPlayers    = 5
)

var establishments = []Establishment{
	{ID: WheatField, Name: "Wheat Field", Color: Blue, Cost: 1, Activation: []int{1}, Icon: IconWheat, Effect: Effect{Kind: EffectBank, Amount: 1}},
	{ID: Ranch, Name: "Ranch", Color: Blue, Cost: 1, Activation: []int{2}, Icon: IconCow, Effect: Effect{Kind: EffectBank, Amount: 1}},
	{ID: Bakery, Name: "Bakery", Color: Green, Cost: 1, Activation: []int{2, 3}, Icon: IconBread, Effect: Effect{Kind: EffectBank, Amount: 1}},
	{ID: Cafe, Name: "Cafe", Color: Red, Cost: 2, Activation: []int{3}, Icon: IconCup, Effect: Effect{Kind: EffectSteal, Amount: 1}},
	{ID: ConvenienceStore, Name: "Convenience Store", Color: Green, Cost: 2, Activation: []int{4}, Icon: IconBread, Effect: Effect{Kind: EffectBank, Amount: 3}},
	{ID: Forest, Name: "Forest", Color: Blue, Cost: 3, Activation: []int{5}, Icon: IconGear, Effect: Effect{Kind: EffectBank, Amount: 1}},
	{ID: Stadium, Name: "Stadium", Color: Purple, Cost: 6, Activation: []int{6}, Icon: IconFactory, Effect: Effect{Kind: EffectStealEach, Amount: 2}, MaxOwned: 1},
	{ID: TVStation, Name: "TV Station", Color: Purple, Cost: 7, Activation: []int{6}, Icon: IconFactory, Effect: Effect{Kind: EffectStealChoice, Amount: 5}, MaxOwned: 1},
	{ID: BusinessCenter, Name: "Business Center", Color: Purple, Cost: 8, Activation: []int{6}, Icon: IconFactory, Effect: Effect{Kind: EffectSwap}, MaxOwned: 1},
	{ID: CheeseFactory, Name: "Cheese Factory", Color: Green, Cost: 5, Activation: []int{7}, Icon: IconFactory, Effect: Effect{Kind: EffectBankPerIcon, Amount: 3, Icons: []Icon{IconCow}}},
	{ID: FurnitureFactory, Name: "Furniture Factory", Color: Green, Cost: 3, Activation: []int{8}, Icon: IconFactory, Effect: Effect{Kind: EffectBankPerIcon, Amount: 3, Icons: []Icon{IconGear}}},
	{ID: Mine, Name: "Mine", Color: Blue, Cost: 6, Activation: []int{9}, Icon: IconGear, Effect: Effect{Kind: EffectBank, Amount: 5}},
	{ID: FamilyRestaurant, Name: "Family Restaurant", Color: Red, Cost: 3, Activation: []int{9, 10}, Icon: IconCup, Effect: Effect{Kind: EffectSteal, Amount: 2}},
	{ID: AppleOrchard, Name: "Apple Orchard", Color: Blue, Cost: 3, Activation: []int{10}, Icon: IconFruit, Effect: Effect{Kind: EffectBank, Amount: 3}},
	{ID: FruitAndVegetableMarket, Name: "Fruit and Vegetable Market", Color: Green, Cost: 2, Activation: []int{11, 12}, Icon: IconFruit, Effect: Effect{Kind: EffectBankPerIcon, Amount: 2, Icons: []Icon{IconWheat, IconFruit}}},
}

var landmarks = []Landmark{
	{ID: TrainStation, Name: "Train Station", Cost: 4, Description: "You may roll 2 dice."},
	{ID: ShoppingMall, Name: "Shopping Mall", Cost: 10, Description: "Your bread and cup establishments earn +1 coin (bank or players)."},
	{ID: AmusementPark, Name: "Amusement Park", Cost: 16, Description: "If you roll doubles, take another turn."},
	{ID: RadioTower, Name: "Radio Tower", Cost: 22, Description: "Once per turn, you may re-roll your dice."},
}

var marketCounts = map[string]int{
	Stadium:        4,
	TVStation:      4,
	BusinessCenter: 4,
}

const defaultMarketCount = 6

var (
	establishmentIndex = map[string]int{}
	landmarkIndex      = map[string]int{}
)

func init() {
	for i := range establishments {
		establishments[i].Index = i
		establishmentIndex[establishments[i].ID] = i
	}
	for i := range landmarks {
		landmarks[i].Index = i
		landmarkIndex[landmarks[i].ID] = i
	}
}
