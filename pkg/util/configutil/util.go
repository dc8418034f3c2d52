package configutil

// SetDefault abstracts setting Viper defaults.
type SetDefault interface {
	SetDefault(key string, value any)
}
