package market

// Order is a single buy or sell order as listed on a profile.
type Order struct {
	ID           string    `json:"id"`
	Platinum     float64   `json:"platinum"`
	Quantity     int       `json:"quantity"`
	Visible      bool      `json:"visible"`
	ModRank      *int      `json:"mod_rank,omitempty"`
	OrderType    string    `json:"order_type"`
	CreationDate string    `json:"creation_date"`
	LastUpdate   string    `json:"last_update"`
	Item         OrderItem `json:"item"`
}

// OrderItem is the item summary embedded in an order.
type OrderItem struct {
	ID      string `json:"id"`
	URLName string `json:"url_name"`
}

type OrdersResponse struct {
	Payload struct {
		SellOrders []Order `json:"sell_orders"`
		BuyOrders  []Order `json:"buy_orders"`
	} `json:"payload"`
}

type OrderResponse struct {
	Payload struct {
		Order Order `json:"order"`
	} `json:"payload"`
}

// DropSource names a place an item can be obtained from.
type DropSource struct {
	Name string `json:"name"`
	Link string `json:"link"`
}

type ItemLocale struct {
	ItemName string       `json:"item_name"`
	Drop     []DropSource `json:"drop"`
}

// SetItem is one member of an item set, e.g. a blueprint part.
type SetItem struct {
	ID      string     `json:"id"`
	URLName string     `json:"url_name"`
	En      ItemLocale `json:"en"`
}

type ItemDetail struct {
	ID         string    `json:"id"`
	ItemsInSet []SetItem `json:"items_in_set"`
}

type ItemResponse struct {
	Payload struct {
		Item ItemDetail `json:"item"`
	} `json:"payload"`
}

type ItemSummary struct {
	ID       string `json:"id"`
	URLName  string `json:"url_name"`
	ItemName string `json:"item_name"`
	Thumb    string `json:"thumb"`
}

type ItemsResponse struct {
	Payload struct {
		Items []ItemSummary `json:"items"`
	} `json:"payload"`
}

// OrderUpdate is the PUT body for /profile/orders/{id}.
type OrderUpdate struct {
	OrderID  string  `json:"order_id"`
	Platinum float64 `json:"platinum"`
	Quantity int     `json:"quantity"`
	Visible  bool    `json:"visible"`
	ModRank  *int    `json:"mod_rank,omitempty"`
}
