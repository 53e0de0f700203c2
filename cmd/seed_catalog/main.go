package main

import (
	"fmt"
	"os"

	"library-management/library"
)

type seedBook struct {
	title  string
	author string
	isbn   string
	copies int
}

func main() {
	// Clean up any existing database files
	fmt.Println("Cleaning up existing database files...")
	dbFiles := []string{"library.db", "library.db-shm", "library.db-wal"}
	for _, file := range dbFiles {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			fmt.Printf("Warning: Could not remove %s: %v\n", file, err)
		}
	}
	fmt.Println("Database cleanup complete.")

	db, err := library.NewDatabase("library.db")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	svc := library.NewService(db, library.SimulatedGateway{})

	catalog := []seedBook{
		{"1984", "George Orwell", "9780451524935", 4},
		{"Animal Farm", "George Orwell", "9780452284241", 3},
		{"The Diary of a Young Girl", "Anne Frank", "9780553296983", 2},
		{"The Art of War", "Sun Tzu", "9781599869773", 2},
		{"The Fellowship of the Ring", "J.R.R. Tolkien", "9780547928210", 3},
		{"The Two Towers", "J.R.R. Tolkien", "9780547928203", 3},
		{"The Return of the King", "J.R.R. Tolkien", "9780547928197", 3},
		{"Romeo and Juliet", "William Shakespeare", "9780743477116", 5},
		{"The Three Musketeers", "Alexandre Dumas", "9780140367470", 2},
		{"Harry Potter and the Philosopher's Stone", "J.K. Rowling", "9780747532699", 6},
		{"Harry Potter and the Chamber of Secrets", "J.K. Rowling", "9780747538493", 6},
		{"Harry Potter and the Prisoner of Azkaban", "J.K. Rowling", "9780747542155", 6},
	}

	fmt.Println("Seeding catalog...")

	successCount := 0
	errorCount := 0

	for _, b := range catalog {
		fmt.Printf("Adding: %s by %s... ", b.title, b.author)

		res := svc.AddBook(b.title, b.author, b.isbn, b.copies)
		if !res.OK {
			fmt.Printf("ERROR - %s\n", res.Message)
			errorCount++
			continue
		}

		fmt.Printf("SUCCESS (ID: %d, %d copies)\n", res.BookID, b.copies)
		successCount++
	}

	fmt.Printf("\nSeed complete!\n")
	fmt.Printf("Successfully added: %d books\n", successCount)
	fmt.Printf("Errors: %d\n", errorCount)
}
