//
//   Copyright © 2019 Uncharted Software Inc.
//
//   Licensed under the Apache License, Version 2.0 (the "License");
//   you may not use this file except in compliance with the License.
//   You may obtain a copy of the License at
//
//       http://www.apache.org/licenses/LICENSE-2.0
//
//   Unless required by applicable law or agreed to in writing, software
//   distributed under the License is distributed on an "AS IS" BASIS,
//   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//   See the License for the specific language governing permissions and
//   limitations under the License.

package convert

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/uncharted-distil/distil-madmp/conf"
	"github.com/uncharted-distil/distil-madmp/license"
	"github.com/uncharted-distil/distil-madmp/madmp"
	"github.com/uncharted-distil/distil-madmp/model"
)

// UserFinder looks up user accounts.
type UserFinder interface {
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// Deps are handed to converter factories.
type Deps struct {
	Config   *conf.Conf
	Users    UserFinder
	Licenses *license.Catalog
}

// Factory creates a converter.
type Factory func(deps Deps) (RecordConverter, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// Register makes a converter factory available by name. It panics if the
// factory is nil or the name is taken.
func Register(name string, factory Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	if factory == nil {
		panic("convert: Register factory is nil")
	}
	if _, dup := factories[name]; dup {
		panic("convert: Register called twice for converter " + name)
	}
	factories[name] = factory
}

// Lookup returns the factory registered under name.
func Lookup(name string) (Factory, bool) {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	factory, ok := factories[name]
	return factory, ok
}

// Converters returns the sorted names of the registered converters.
func Converters() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func create(name string, deps Deps) (RecordConverter, error) {
	factory, ok := Lookup(name)
	if !ok {
		return nil, errors.Errorf("unknown converter `%s`", name)
	}
	converter, err := factory(deps)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to create converter `%s`", name)
	}
	return converter, nil
}

// Set is an ordered list of converters with an optional fallback.
type Set struct {
	Converters []RecordConverter
	Fallback   RecordConverter
}

// NewSet creates the named converters. An empty fallback name means no
// fallback.
func NewSet(names []string, fallback string, deps Deps) (*Set, error) {
	set := &Set{}
	for _, name := range names {
		converter, err := create(name, deps)
		if err != nil {
			return nil, err
		}
		set.Converters = append(set.Converters, converter)
	}
	if fallback != "" {
		converter, err := create(fallback, deps)
		if err != nil {
			return nil, err
		}
		set.Fallback = converter
	}
	return set, nil
}

// NewSetFromConfig creates the converters listed in the configuration.
func NewSetFromConfig(config *conf.Conf, users UserFinder) (*Set, error) {
	catalog, err := license.LoadCatalog(config.LicensesFile)
	if err != nil {
		return nil, err
	}
	return NewSet(config.RecordConverters, config.FallbackRecordConverter, Deps{
		Config:   config,
		Users:    users,
		Licenses: catalog,
	})
}

// ForDataset returns the first converter matching the distribution, the
// fallback, or nil.
func (s *Set) ForDataset(dist *madmp.Distribution, ds *madmp.Dataset, dmp *madmp.DMP) RecordConverter {
	for _, c := range s.Converters {
		if c.MatchesDataset(dist, ds, dmp) {
			return c
		}
	}
	return s.Fallback
}

// ForRecord returns the first converter matching the record, the fallback,
// or nil.
func (s *Set) ForRecord(rec *model.Record) RecordConverter {
	for _, c := range s.Converters {
		if c.MatchesRecord(rec) {
			return c
		}
	}
	return s.Fallback
}
