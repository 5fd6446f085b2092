package classify

import "strings"

// Category is the canonical bucket an asset is filed under.
type Category string

const (
	CategoryStockPhotos  Category = "StockPhotos"
	CategoryVideo        Category = "Video"
	CategoryMusic        Category = "Music"
	CategorySFX          Category = "SFX"
	CategoryGreenScreen  Category = "GreenScreen"
	CategoryTexture      Category = "Texture"
	CategoryGIF          Category = "GIF"
	CategoryIllustration Category = "Illustration"
	CategoryBackground   Category = "Background"
	CategoryIcon         Category = "Icon"
	Category3D           Category = "3D"
)

func (c Category) String() string { return string(c) }

var categories = []Category{
	CategoryStockPhotos,
	CategoryVideo,
	CategoryMusic,
	CategorySFX,
	CategoryGreenScreen,
	CategoryTexture,
	CategoryGIF,
	CategoryIllustration,
	CategoryBackground,
	CategoryIcon,
	Category3D,
}

// aliases maps the lower-cased prefix a user types to its canonical category.
var aliases = map[string]Category{
	"stockphoto":    CategoryStockPhotos,
	"stockphotos":   CategoryStockPhotos,
	"photo":         CategoryStockPhotos,
	"video":         CategoryVideo,
	"videos":        CategoryVideo,
	"music":         CategoryMusic,
	"audio":         CategoryMusic,
	"sfx":           CategorySFX,
	"soundfx":       CategorySFX,
	"greenscreen":   CategoryGreenScreen,
	"greenscreens":  CategoryGreenScreen,
	"texture":       CategoryTexture,
	"textures":      CategoryTexture,
	"gif":           CategoryGIF,
	"gifs":          CategoryGIF,
	"illustration":  CategoryIllustration,
	"illustrations": CategoryIllustration,
	"background":    CategoryBackground,
	"backgrounds":   CategoryBackground,
	"icon":          CategoryIcon,
	"icons":         CategoryIcon,
	"3d":            Category3D,
	"model":         Category3D,
	"mesh":          Category3D,
}

// Categories returns the canonical categories in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ResolveCategory looks up a user-typed prefix, case-insensitively.
func ResolveCategory(key string) (Category, bool) {
	c, ok := aliases[strings.ToLower(strings.TrimSpace(key))]
	return c, ok
}

// CategoryList renders the canonical categories as "A, B, C".
func CategoryList() string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
