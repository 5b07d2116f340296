package ports

// CartStorage holds the serialized cart under a single key, the way a browser's
// local storage would. Save replaces the whole value.
type CartStorage interface {
	Load() ([]byte, error)
	Save(data []byte) error
	Clear() error
}

// Notifier surfaces user-visible confirmations such as "added to your cart".
type Notifier interface {
	Notify(message string)
}
