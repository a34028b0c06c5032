package settings

// Suggestion lists offered by the entry form. Values outside these lists are accepted.
var (
	// SourceOptions are the suggested purchase sources.
	SourceOptions = []string{"Online Purchase", "Physical Store", "Gift", "Trade", "Other"}
	// PaymentModeOptions are the suggested payment modes for sold cards.
	PaymentModeOptions = []string{"Cash", "Bank Transfer", "PayPal", "Venmo", "Zelle", "Credit Card", "Other"}
	// PendingOptions are the only accepted pending values.
	PendingOptions = []string{"Yes", "No"}
	// ImageExtensions lists the accepted card image extensions.
	ImageExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".gif"}
)

// Options groups the suggestion lists for the API.
type Options struct {
	Sources         []string `json:"sources"`
	PaymentModes    []string `json:"payment_modes"`
	Pending         []string `json:"pending"`
	ImageExtensions []string `json:"image_extensions"`
}

// FormOptions returns copies of the suggestion lists.
func FormOptions() Options {
	return Options{
		Sources:         append([]string(nil), SourceOptions...),
		PaymentModes:    append([]string(nil), PaymentModeOptions...),
		Pending:         append([]string(nil), PendingOptions...),
		ImageExtensions: append([]string(nil), ImageExtensions...),
	}
}
