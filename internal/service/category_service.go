package service

import (
	"context"
	"sort"

	"twelve-week-year/internal/repository"
)

// CategoryService provides helpers around categories.
type CategoryService struct {
	store *repository.Store
}

func NewCategoryService(store *repository.Store) *CategoryService {
	return &CategoryService{store: store}
}

// List returns registered categories merged with the ones tasks use.
func (s *CategoryService) List(ctx context.Context) ([]string, error) {
	registered, err := s.store.Categories.List(ctx)
	if err != nil {
		return nil, err
	}
	used, err := s.store.Tasks.Categories(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(registered)+len(used))
	var names []string
	add := func(name string) {
		if _, ok := seen[name]; ok || name == "" {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	for _, c := range registered {
		add(c.Name)
	}
	for _, name := range used {
		add(name)
	}
	sort.Strings(names)
	return names, nil
}
