// Package options carries the compiled-in pickers the client renders:
// camera styles, angles, moods, locations, product categories and
// presentation styles. The generation modules read the same tables, so
// server and client can never disagree on a value.
package options

// AngleRandom makes the prompt assembler draw a concrete angle per run.
const AngleRandom = "Random"

var CameraStyles = []string{
	"iPhone 15 Pro front camera selfie",
	"Sony A7III with 35mm f/1.8 lens",
	"Vintage film camera (Kodak Portra 400)",
	"GoPro wide-angle action shot",
	"Professional studio DSLR",
}

var CameraAngles = []string{
	"Eye-Level Medium Shot",
	"Low Angle Shot",
	"High Angle Shot",
	"Dutch Angle",
	"Over-the-Shoulder Shot",
	"Full Body Shot",
	"Product Close-up",
	AngleRandom,
}

var Moods = []string{
	"Cheerful & Energetic",
	"Cozy & Warm",
	"Clean & Minimalist",
	"Luxurious & Elegant",
	"Fun & Playful",
	"Fresh & Natural",
}

var LocationTypes = []string{"Indoor", "Outdoor", "Studio Mini"}

var IndoorLocations = []string{
	"Cozy bedroom with warm lighting",
	"Modern minimalist living room",
	"Bright kitchen with morning light",
	"Aesthetic home office desk setup",
	"Bathroom vanity with LED mirror",
}

var OutdoorLocations = []string{
	"Trendy rooftop cafe at golden hour",
	"City park with lush greenery",
	"Urban street with neon signs at night",
	"Beachside promenade at sunset",
	"Outdoor market with colorful stalls",
}

var StudioMiniLocations = []string{
	"Seamless pastel backdrop with props",
	"Podium display with dramatic spotlight",
	"Textured stone surface with soft shadows",
	"Mirror surface with water droplets",
}

var ProductCategories = []string{
	"Apparel",
	"Gadget",
	"Food & Beverage",
	"Beauty",
	"Home Goods",
	"Other",
}

var VoiceoverStyles = []string{"Simpel", "Detail"}

// Presentation styles for product-only runs.
const (
	PresentationHand   = "hand"
	PresentationPlaced = "placed"
)

var PresentationStyles = []string{PresentationHand, PresentationPlaced}

// Preset custom directives applied when a product-only run picks a
// presentation style, in the same register as user-written directives.
var PresentationPrompts = map[string]string{
	PresentationHand: "produk dipegang oleh tangan wanita yang elegan dan terawat\n" +
		"fokus penuh ke produk, tangan hanya sebagai pendukung\n" +
		"tanpa text, tanpa watermark, tanpa sticker",
	PresentationPlaced: "produk diletakkan secara estetik sebagai objek utama\n" +
		"komposisi rapi dengan pencahayaan yang menonjolkan produk\n" +
		"tanpa text, tanpa watermark, tanpa sticker",
}

// SubLocations returns the sub-location list for a location type.
func SubLocations(locationType string) []string {
	switch locationType {
	case "Outdoor":
		return OutdoorLocations
	case "Studio Mini":
		return StudioMiniLocations
	default:
		return IndoorLocations
	}
}

// Contains reports whether list carries value.
func Contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
