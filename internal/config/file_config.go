package config

// UploadConfig - ограничения на загружаемые файлы
type UploadConfig struct {
	PostMaxSize   int64    `yaml:"post_max_size"`   // байты, на один файл поста
	AvatarMaxSize int64    `yaml:"avatar_max_size"` // байты
	MaxFiles      int      `yaml:"max_files"`       // файлов в одном посте
	AllowedTypes  []string `yaml:"allowed_types"`   // MIME-типы изображений
	ImageQuality  int      `yaml:"image_quality"`   // JPEG quality (1-100)
	ThumbnailSize int      `yaml:"thumbnail_size"`  // px, по большей стороне
}

func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		PostMaxSize:   5 * 1024 * 1024, // 5MB
		AvatarMaxSize: 2 * 1024 * 1024, // 2MB
		MaxFiles:      10,
		AllowedTypes: []string{
			"image/jpeg", "image/png", "image/gif", "image/webp",
		},
		ImageQuality:  85,
		ThumbnailSize: 400,
	}
}
