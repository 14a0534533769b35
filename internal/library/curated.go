package library

import "readnook/pkg/domain"

// curatedBooks is the fixed built-in shelf. These entries are immutable,
// never persisted and never deletable; their content is served by the
// assistant backend rather than stored locally.
var curatedBooks = []domain.Book{
	{ID: "romeoandjuliet", Cover: "/covers/book7.png", Title: "로미오와 줄리엣"},
	{ID: "1", Cover: "/covers/book1.png", Title: "기본 책 1"},
	{ID: "2", Cover: "/covers/book2.png", Title: "기본 책 2"},
	{ID: "3", Cover: "/covers/book3.png", Title: "기본 책 3"},
	{ID: "4", Cover: "/covers/book4.png", Title: "기본 책 4"},
	{ID: "5", Cover: "/covers/book5.png", Title: "기본 책 5"},
}

// CuratedBooks returns a copy of the built-in shelf.
func CuratedBooks() []domain.Book {
	out := make([]domain.Book, len(curatedBooks))
	copy(out, curatedBooks)
	return out
}
