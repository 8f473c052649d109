package todo

import (
	"cmp"
	"slices"
)

// Compare orders todos by priority descending, then by id ascending.
func Compare(a, b Todo) int {
	if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Sort orders todos in place for presentation.
func Sort(todos []Todo) {
	slices.SortFunc(todos, Compare)
}

// Sorted returns an ordered copy of todos.
func Sorted(todos []Todo) []Todo {
	out := slices.Clone(todos)
	Sort(out)
	return out
}
