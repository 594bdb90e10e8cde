package block

// TextureKind определяет способ отрисовки граней блока
type TextureKind uint8

const (
	TextureImage TextureKind = iota // одна картинка на все грани
	TextureSides                    // отдельные картинки для верха и боков
	TextureLaser                    // специальная отрисовка луча
)

// Texture - описание текстуры для внешнего рендерера.
type Texture struct {
	Kind  TextureKind `json:"kind"`
	Image string      `json:"image,omitempty"`
	Top   string      `json:"top,omitempty"`
	Side  string      `json:"side,omitempty"`
}

// Image создаёт текстуру из одного изображения
func Image(name string) Texture {
	return Texture{Kind: TextureImage, Image: name}
}

// Sides создаёт текстуру с разными верхом и боками
func Sides(top, side string) Texture {
	return Texture{Kind: TextureSides, Top: top, Side: side}
}

// LaserTexture возвращает текстуру луча
func LaserTexture() Texture {
	return Texture{Kind: TextureLaser}
}
