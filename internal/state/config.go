package state

import (
	"path/filepath"
	"sync"

	"github.com/gagarin78/vendo/currency"
	"github.com/gagarin78/vendo/helpers"
	"github.com/gagarin78/vendo/log2"
	tele_config "github.com/gagarin78/vendo/tele/config"
	"github.com/hashicorp/hcl"
	"github.com/juju/errors"
)

type Config struct {
	// includeSeen contains absolute paths to prevent include loops
	includeSeen map[string]struct{}
	// only used for Unmarshal, do not access
	XXX_Include []ConfigSource `hcl:"include"`

	Money struct {
		Scale     int          `hcl:"scale"`
		CreditMax int          `hcl:"credit_max"`
		Coins     []CoinConfig `hcl:"coin"`
	}

	Catalog struct {
		Slots []SlotConfig `hcl:"slot"`
	}

	Tele tele_config.Config

	UI struct {
		Front struct {
			MsgIntro        string `hcl:"msg_intro"`
			MsgError        string `hcl:"msg_error"`
			MsgThanks       string `hcl:"msg_thanks"`
			ResetTimeoutSec int    `hcl:"reset_sec"`
		}
		Service struct {
			Auth struct {
				Enable    bool     `hcl:"enable"`
				Passwords []string `hcl:"passwords"`
			} `hcl:"auth"`
			MsgAuth         string `hcl:"msg_auth"`
			ResetTimeoutSec int    `hcl:"reset_sec"`
		}
	}

	_copy_guard sync.Mutex //nolint:unused
}

type ConfigSource struct {
	Name     string `hcl:"name,key"`
	Optional bool   `hcl:"optional"`
}

// CoinConfig declares one accepted nominal and its seeded float count.
// Nominal is in config money units, scaled like prices.
// int not uint, hcl1 does not decode unsigned kinds.
type CoinConfig struct {
	Nominal string `hcl:"nominal,key"`
	Count   int    `hcl:"count"`
}

type SlotConfig struct { //nolint:maligned
	Code         string `hcl:"code,key"`
	Name         string `hcl:"name"`
	XXX_Price    int    `hcl:"price"` // use scaled `Price`, this is for decoding config only
	Stock        int    `hcl:"stock"`
	ShelfLifeSec int    `hcl:"shelf_life_sec"` // 0 = non-perishable

	Price currency.Amount `hcl:"-"`
}

func (c *Config) ScaleI(i int) currency.Amount {
	return currency.Amount(i) * currency.Amount(c.Money.Scale)
}

func (c *Config) read(log *log2.Log, fs FullReader, source ConfigSource, errs *[]error) {
	norm := fs.Normalize(source.Name)
	if _, ok := c.includeSeen[norm]; ok {
		log.Fatalf("config duplicate source=%s", source.Name)
	} else {
		log.Debugf("config reading source='%s' path=%s", source.Name, norm)
	}
	c.includeSeen[source.Name] = struct{}{}
	c.includeSeen[norm] = struct{}{}

	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		if !source.Optional {
			err = errors.NotFoundf("config required name=%s path=%s", source.Name, norm)
			*errs = append(*errs, err)
			return
		}
	}
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	}

	err = hcl.Unmarshal(bs, c)
	if err != nil {
		err = errors.Annotatef(err, "config unmarshal source=%s content='%s'", source.Name, string(bs))
		*errs = append(*errs, err)
		return
	}

	var includes []ConfigSource
	includes, c.XXX_Include = c.XXX_Include, nil
	for _, include := range includes {
		includeNorm := fs.Normalize(include.Name)
		if _, ok := c.includeSeen[includeNorm]; ok {
			err = errors.Errorf("config include loop: from=%s include=%s", source.Name, include.Name)
			*errs = append(*errs, err)
			continue
		}
		c.read(log, fs, include, errs)
	}
}

func ReadConfig(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		log.Fatal("code error [Must]ReadConfig() without names")
	}

	if osfs, ok := fs.(*OsFullReader); ok {
		dir, name := filepath.Split(names[0])
		osfs.SetBase(dir)
		names[0] = name
	}
	c := &Config{
		includeSeen: make(map[string]struct{}),
	}
	errs := make([]error, 0, 8)
	for _, name := range names {
		c.read(log, fs, ConfigSource{Name: name}, &errs)
	}
	return c, helpers.FoldErrors(errs)
}

func MustReadConfig(log *log2.Log, fs FullReader, names ...string) *Config {
	c, err := ReadConfig(log, fs, names...)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}
