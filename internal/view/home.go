package view

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/johann/leptos-todo/internal/storage"
)

// Home is everything the home page shows.
type Home struct {
	Todos  []storage.TodoItem
	Err    error
	Search string
}

// HomePage renders the top bar, bulk actions, add form and list.
func HomePage(d Home) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.render(Topbar(d.Search), ctx)
		h.raw(`<div class="container mt-3">`)
		h.render(AllTodosAction(), ctx)
		h.raw(`</div><div class="container mt-3">`)
		h.render(TodoAdd(), ctx)
		h.raw(`</div><div class="container mt-3">`)
		h.render(TodoList(d.Todos, d.Err), ctx)
		h.raw(`</div>`)
		return h.err
	})
}

// Topbar is the navigation bar with the search form.
func Topbar(search string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<nav class="navbar navbar-expand-md" style="background-color: #301934"><div class="container-fluid">`)
		h.raw(`<a class="navbar-brand" href="/"><span class="text-warning me-1">&#10003;</span> Todo</a>`)
		h.raw(`<form class="d-flex" role="search" method="get" action="/">`)
		h.raw(`<input class="form-control me-2" type="search" name="search" placeholder="Search" aria-label="Search"`)
		h.attr("value", search)
		h.raw(`>`)
		h.raw(`<button class="btn btn-outline-secondary" type="submit">Search</button></form>`)
		h.raw(`</div></nav>`)
		return h.err
	})
}

// AllTodosAction holds the bulk actions and the delete-all confirmation.
func AllTodosAction() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<div class="d-flex justify-content-center">`)
		h.raw(`<form method="post" action="/api/mark_all_done"><input type="submit" value="All Done" class="btn btn-outline-success mx-3"></form>`)
		h.raw(`<form method="post" action="/api/mark_all_undone"><input type="submit" value="All Undone" class="btn btn-outline-warning mx-3"></form>`)
		h.raw(`<a href="#confirm-delete" class="btn btn-outline-danger mx-3">Delete All</a>`)
		h.raw(`</div>`)

		h.raw(`<div class="modal" tabindex="-1" id="confirm-delete"><div class="modal-dialog"><div class="modal-content">`)
		h.raw(`<div class="modal-header"><h5 class="modal-title text-danger">Delete All</h5>`)
		h.raw(`<a href="#" class="btn-close" aria-label="Close">&times;</a></div>`)
		h.raw(`<div class="modal-body text-start"><p>This will delete all todos, are you sure?</p></div>`)
		h.raw(`<div class="modal-footer"><a href="#" class="btn btn-secondary">Close</a>`)
		h.raw(`<form method="post" action="/api/delete_all"><input type="submit" value="Delete All" class="btn btn-danger"></form>`)
		h.raw(`</div></div></div></div>`)
		return h.err
	})
}

// TodoAdd is the new todo form.
func TodoAdd() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<form method="post" action="/api/add_todo"><div class="input-group"><div class="form-floating">`)
		h.raw(`<input type="text" name="todo" id="floatingTodo" class="form-control" placeholder="Take out the trash" required autofocus>`)
		h.raw(`<label for="floatingTodo" class="text-muted">New todo...</label></div>`)
		h.raw(`<button type="submit" class="btn btn-outline-success col-lg-1">+ Add</button>`)
		h.raw(`</div></form>`)
		return h.err
	})
}

// TodoList renders the list, or why there is none.
func TodoList(todos []storage.TodoItem, err error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<div>`)
		switch {
		case err != nil:
			h.raw(`<p class="text-danger">Error loading: `)
			h.text(err.Error())
			h.raw(`</p>`)
		case len(todos) == 0:
			h.raw(`<p class="text-muted">No data</p>`)
		default:
			for _, item := range todos {
				h.render(todoCard(item), ctx)
			}
		}
		h.raw(`</div>`)
		return h.err
	})
}

func todoCard(item storage.TodoItem) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		toggleClass := "btn btn-sm todo-toggle btn-outline-warning"
		toggleLabel := "Done"
		taskClass := "flex-fill text-start mx-3"
		if item.Done {
			toggleClass = "btn btn-sm todo-toggle btn-outline-success"
			toggleLabel = "Undo"
			taskClass += " todo-done"
		}
		id := itoa(item.ID)

		h.raw(`<div class="card mt-3" style="background-color: #301934"`)
		h.attr("id", "todo-"+id)
		h.raw(`><div class="card-body d-flex"><div>`)
		h.raw(`<form method="post" action="/api/toggle_todo"><input type="hidden" name="id"`)
		h.attr("value", id)
		h.raw(`><button type="submit"`)
		h.attr("class", toggleClass)
		h.raw(`>`)
		h.text(toggleLabel)
		h.raw(`</button></form></div>`)
		h.raw(`<div`)
		h.attr("class", taskClass)
		h.raw(`>`)
		h.text(item.Task)
		h.raw(`</div><div class="ms-auto">`)
		h.raw(`<form method="post" action="/api/delete_todo"><input type="hidden" name="id"`)
		h.attr("value", id)
		h.raw(`><button type="submit" class="btn btn-sm btn-outline-danger">Delete</button></form>`)
		h.raw(`</div></div></div>`)
		return h.err
	})
}
