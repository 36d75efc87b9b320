package inventory

// SeedCatalog loads the default product catalog into m. Quantities and
// prices match the demo dataset the services ship with.
func SeedCatalog(m *Manager) {
	seed := []struct {
		id, name   string
		quantity   int
		priceCents int64
	}{
		{"LAPTOP001", "Gaming Laptop", 50, 129999},
		{"PHONE001", "Smartphone", 100, 69999},
		{"TABLET001", "Tablet", 75, 39999},
		{"HEADPHONES001", "Wireless Headphones", 200, 19999},
		{"MOUSE001", "Gaming Mouse", 150, 7999},
		{"KEYBOARD001", "Mechanical Keyboard", 120, 14999},
		{"MONITOR001", "4K Monitor", 30, 49999},
		{"CAMERA001", "Digital Camera", 25, 89999},
		{"SPEAKER001", "Bluetooth Speaker", 80, 12999},
		{"WATCH001", "Smart Watch", 60, 29999},
	}
	for _, p := range seed {
		m.AddProduct(p.id, p.name, p.quantity, p.priceCents)
	}
}
