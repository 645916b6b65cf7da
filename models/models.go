package models

import "time"

// Product is a store item with a quantity-on-hand counter.
// Quantity never goes negative; decrements are guarded in the orders package.
type Product struct {
	ProductID   string    `json:"productId" bson:"productid"`
	Name        string    `json:"name" bson:"name"`
	Price       float64   `json:"price" bson:"price"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Image       string    `json:"image,omitempty" bson:"image,omitempty"`
	Quantity    int       `json:"quantity" bson:"quantity"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Cart is the per-user staging area. At most one exists per user; it is
// created on first add-to-cart and deleted when its lines become an order.
type Cart struct {
	CartID    string    `json:"cartId" bson:"cartid"`
	UserID    string    `json:"userId" bson:"userid"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// CartItem is one (cart, product) line. Repeated adds increment Quantity.
type CartItem struct {
	ItemID    string    `json:"cartItemId" bson:"itemid"`
	CartID    string    `json:"cartId" bson:"cartid"`
	UserID    string    `json:"userId" bson:"userid"`
	ProductID string    `json:"productId" bson:"productid"`
	Quantity  int       `json:"quantity" bson:"quantity"`
	AddedAt   time.Time `json:"addedAt" bson:"addedAt"`
}

// CartLine is a cart item joined with its product for GET /api/cart.
type CartLine struct {
	CartItem `bson:",inline"`
	Product  *Product `json:"product,omitempty" bson:"product,omitempty"`
}

// OrderItem is a read-only snapshot taken at order time. Price is the unit
// price when the order was placed; later product edits do not affect it.
type OrderItem struct {
	ProductID string  `json:"productId" bson:"productid"`
	Name      string  `json:"name" bson:"name"`
	Quantity  int     `json:"quantity" bson:"quantity"`
	Price     float64 `json:"price" bson:"price"`
}

// Order is immutable after creation except for Status and the
// InventoryApplied marker.
type Order struct {
	OrderID          string      `json:"orderId" bson:"orderid"`
	UserID           string      `json:"userId" bson:"userid"`
	Items            []OrderItem `json:"items" bson:"items"`
	TotalAmount      float64     `json:"totalAmount" bson:"totalAmount"`
	Status           string      `json:"status" bson:"status"`
	InventoryApplied bool        `json:"-" bson:"inventoryApplied"`
	CreatedAt        time.Time   `json:"createdAt" bson:"createdAt"`
}

// Pet is an adoptable animal. AvailableForAdoption is flipped off as soon as
// a pending adoption request exists for it.
type Pet struct {
	PetID                string    `json:"petId" bson:"petid"`
	UserID               string    `json:"userId,omitempty" bson:"userid,omitempty"`
	Name                 string    `json:"name" bson:"name"`
	Breed                string    `json:"breed,omitempty" bson:"breed,omitempty"`
	Age                  int       `json:"age,omitempty" bson:"age,omitempty"`
	Description          string    `json:"description,omitempty" bson:"description,omitempty"`
	Image                string    `json:"image,omitempty" bson:"image,omitempty"`
	AvailableForAdoption bool      `json:"availableForAdoption" bson:"availableForAdoption"`
	CreatedAt            time.Time `json:"createdAt" bson:"createdAt"`
}

// AdoptionRequest is a user's pending claim on a pet. Resolving it deletes
// the record; the outcome is applied to the pet.
type AdoptionRequest struct {
	RequestID string    `json:"requestId" bson:"requestid"`
	PetID     string    `json:"petId" bson:"petid"`
	UserID    string    `json:"userId" bson:"userid"`
	Message   string    `json:"message" bson:"message"`
	Status    string    `json:"status" bson:"status"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// AdoptionView is a request joined with its pet for the admin listing.
type AdoptionView struct {
	AdoptionRequest `bson:",inline"`
	Pet             *Pet `json:"pet,omitempty" bson:"pet,omitempty"`
}

// VetConsultation tracks a scheduling request between a user and a vet.
// Status is the only thing that ever changes.
type VetConsultation struct {
	ConsultID     string    `json:"consultId" bson:"consultid"`
	UserID        string    `json:"userId" bson:"userid"`
	VetID         string    `json:"vetId,omitempty" bson:"vetid,omitempty"`
	RequestedDate time.Time `json:"requestedDate" bson:"requestedDate"`
	Status        string    `json:"status" bson:"status"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
}

// User is the account document.
type User struct {
	UserID        string    `json:"userid" bson:"userid"`
	Username      string    `json:"username" bson:"username"`
	Email         string    `json:"email" bson:"email"`
	Password      string    `json:"password,omitempty" bson:"password"`
	Role          []string  `json:"role" bson:"role"`
	Pets          []string  `json:"pets,omitempty" bson:"pets,omitempty"`
	RefreshToken  string    `json:"-" bson:"refresh_token,omitempty"`
	RefreshExpiry time.Time `json:"-" bson:"refresh_expiry,omitempty"`
	LastLogin     time.Time `json:"-" bson:"last_login,omitempty"`
}

// Event is the shape published on the mq channel and relayed to live
// dashboard clients.
type Event struct {
	EventID    string `json:"event_id,omitempty"`
	EntityType string `json:"entity_type"`
	Method     string `json:"method"`
	EntityId   string `json:"entity_id"`
	ItemId     string `json:"item_id,omitempty"`
	ItemType   string `json:"item_type,omitempty"`
}
