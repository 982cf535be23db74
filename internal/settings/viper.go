package settings

import (
	"github.com/spf13/viper"
)

// Viper exposes a viper instance as a Provider. Values come from the config
// file, environment or defaults; Set writes a viper override that lives for
// the process lifetime.
type Viper struct {
	v      *viper.Viper
	prefix string
}

// NewViper wraps v. Keys are looked up under prefix (e.g. "settings").
func NewViper(v *viper.Viper, prefix string) *Viper {
	return &Viper{v: v, prefix: prefix}
}

func (p *Viper) key(k string) string {
	if p.prefix == "" {
		return k
	}
	return p.prefix + "." + k
}

func (p *Viper) Get(key string) (string, bool) {
	k := p.key(key)
	if !p.v.IsSet(k) {
		return "", false
	}
	return p.v.GetString(k), true
}

func (p *Viper) Set(key, value string) error {
	p.v.Set(p.key(key), value)
	return nil
}
