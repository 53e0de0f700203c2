package library

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Database provides the record store over a SQLite connection: point lookups
// and updates for books and borrow records, plus the transactional units that
// keep inventory and records consistent.
type Database struct {
	db *sqlx.DB

	insertBookStmt   *sql.Stmt
	insertBorrowStmt *sql.Stmt
}

// NewDatabase opens (or creates) the SQLite database at dbPath, applies schema
// migrations, and prepares common statements.
func NewDatabase(dbPath string) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	// Enable busy_timeout and foreign keys.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	database := &Database{db: db}
	if err := database.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	if d.insertBookStmt != nil {
		d.insertBookStmt.Close()
	}
	if d.insertBorrowStmt != nil {
		d.insertBorrowStmt.Close()
	}
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sqlx.DB) error {
	// WAL improves write concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS books (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            isbn TEXT NOT NULL UNIQUE,
            total_copies INTEGER NOT NULL,
            available_copies INTEGER NOT NULL,
            CHECK (available_copies >= 0 AND available_copies <= total_copies)
        );`,
		`CREATE TABLE IF NOT EXISTS borrow_records (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            patron_id TEXT NOT NULL,
            book_id INTEGER NOT NULL REFERENCES books(id),
            borrow_date DATETIME NOT NULL,
            due_date DATETIME NOT NULL,
            return_date DATETIME
        );`,
		`CREATE INDEX IF NOT EXISTS idx_borrow_records_active
            ON borrow_records(patron_id, book_id) WHERE return_date IS NULL;`,
		`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt, schemaVersion); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.insertBookStmt, err = d.db.Prepare(
		`INSERT INTO books(title,author,isbn,total_copies,available_copies) VALUES(?,?,?,?,?)`); err != nil {
		return err
	}
	if d.insertBorrowStmt, err = d.db.Prepare(
		`INSERT INTO borrow_records(patron_id,book_id,borrow_date,due_date) VALUES(?,?,?,?)`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Books
// ---------------------------------------------------------------------------

// InsertBook adds a catalog entry; all copies start available.
func (d *Database) InsertBook(title, author, isbn string, totalCopies int) (int64, error) {
	res, err := d.insertBookStmt.Exec(title, author, isbn, totalCopies, totalCopies)
	if err != nil {
		return 0, fmt.Errorf("insert book: %w", err)
	}
	return res.LastInsertId()
}

// FindBookByID fetches a single book, or (nil, nil) when absent.
func (d *Database) FindBookByID(id int64) (*Book, error) {
	var b Book
	err := d.db.Get(&b, `SELECT id,title,author,isbn,total_copies,available_copies FROM books WHERE id=?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find book %d: %w", id, err)
	}
	return &b, nil
}

// FindBookByISBN fetches a single book by ISBN, or (nil, nil) when absent.
func (d *Database) FindBookByISBN(isbn string) (*Book, error) {
	var b Book
	err := d.db.Get(&b, `SELECT id,title,author,isbn,total_copies,available_copies FROM books WHERE isbn=?`, isbn)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find book isbn %s: %w", isbn, err)
	}
	return &b, nil
}

// AdjustAvailability moves available_copies by delta, refusing any move that
// would leave the count outside [0, total_copies].
func (d *Database) AdjustAvailability(bookID int64, delta int) error {
	res, err := d.db.Exec(
		`UPDATE books SET available_copies = available_copies + ?
         WHERE id = ? AND available_copies + ? BETWEEN 0 AND total_copies`,
		delta, bookID, delta)
	if err != nil {
		return fmt.Errorf("adjust availability: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjust availability: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("availability adjustment by %d out of range for book %d", delta, bookID)
	}
	return nil
}

// SearchBooks runs the catalog query for one search type: exact match for
// ISBN, case-insensitive substring for title and author. Blank terms and
// unknown types yield no results.
func (d *Database) SearchBooks(term, searchType string) ([]Book, error) {
	books := []Book{}

	var query string
	var arg any
	switch searchType {
	case SearchByISBN:
		query = `SELECT id,title,author,isbn,total_copies,available_copies FROM books WHERE isbn = ? ORDER BY title`
		arg = term
	case SearchByTitle:
		query = `SELECT id,title,author,isbn,total_copies,available_copies FROM books WHERE LOWER(title) LIKE LOWER(?) ORDER BY title`
		arg = "%" + term + "%"
	case SearchByAuthor:
		query = `SELECT id,title,author,isbn,total_copies,available_copies FROM books WHERE LOWER(author) LIKE LOWER(?) ORDER BY title`
		arg = "%" + term + "%"
	default:
		return books, nil
	}

	if err := d.db.Select(&books, query, arg); err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	return books, nil
}

// ---------------------------------------------------------------------------
// Borrow records
// ---------------------------------------------------------------------------

// InsertBorrowRecord creates an active borrow record.
func (d *Database) InsertBorrowRecord(patronID string, bookID int64, borrowDate, dueDate time.Time) error {
	if _, err := d.insertBorrowStmt.Exec(patronID, bookID, borrowDate, dueDate); err != nil {
		return fmt.Errorf("insert borrow record: %w", err)
	}
	return nil
}

// FindActiveBorrow returns the patron's oldest active borrow record for the
// book, or (nil, nil) when there is none.
func (d *Database) FindActiveBorrow(patronID string, bookID int64) (*BorrowRecord, error) {
	var r BorrowRecord
	err := d.db.Get(&r, `
        SELECT id,patron_id,book_id,borrow_date,due_date,return_date FROM borrow_records
        WHERE patron_id=? AND book_id=? AND return_date IS NULL
        ORDER BY borrow_date ASC LIMIT 1`, patronID, bookID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active borrow: %w", err)
	}
	return &r, nil
}

// SetReturnDate closes the patron's oldest active borrow record for the book.
func (d *Database) SetReturnDate(patronID string, bookID int64, returnDate time.Time) error {
	res, err := d.db.Exec(`
        UPDATE borrow_records SET return_date=?
        WHERE id = (
            SELECT id FROM borrow_records
            WHERE patron_id=? AND book_id=? AND return_date IS NULL
            ORDER BY borrow_date ASC LIMIT 1
        )`, returnDate, patronID, bookID)
	if err != nil {
		return fmt.Errorf("set return date: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set return date: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no active borrow record for patron %s on book %d", patronID, bookID)
	}
	return nil
}

// CountActiveBorrows returns how many books the patron currently has out.
func (d *Database) CountActiveBorrows(patronID string) (int, error) {
	var n int
	err := d.db.Get(&n, `SELECT COUNT(*) FROM borrow_records WHERE patron_id=? AND return_date IS NULL`, patronID)
	if err != nil {
		return 0, fmt.Errorf("count active borrows: %w", err)
	}
	return n, nil
}

// ActiveLoan is a borrow record joined with its book metadata, used by the
// patron status report.
type ActiveLoan struct {
	BorrowRecord
	Title  string `db:"title"`
	Author string `db:"author"`
}

// ListActiveBorrows returns the patron's active loans with book metadata,
// oldest first.
func (d *Database) ListActiveBorrows(patronID string) ([]ActiveLoan, error) {
	loans := []ActiveLoan{}
	err := d.db.Select(&loans, `
        SELECT r.id, r.patron_id, r.book_id, r.borrow_date, r.due_date, r.return_date,
               b.title, b.author
        FROM borrow_records r
        JOIN books b ON b.id = r.book_id
        WHERE r.patron_id=? AND r.return_date IS NULL
        ORDER BY r.borrow_date ASC`, patronID)
	if err != nil {
		return nil, fmt.Errorf("list active borrows: %w", err)
	}
	return loans, nil
}

// ---------------------------------------------------------------------------
// Transactional units
// ---------------------------------------------------------------------------

// BorrowBook records the loan and decrements availability in one transaction.
// A crash between the two writes cannot leave inventory and records apart.
func (d *Database) BorrowBook(patronID string, bookID int64, borrowDate, dueDate time.Time) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("borrow book: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO borrow_records(patron_id,book_id,borrow_date,due_date) VALUES(?,?,?,?)`,
		patronID, bookID, borrowDate, dueDate); err != nil {
		return fmt.Errorf("borrow book: insert record: %w", err)
	}

	res, err := tx.Exec(
		`UPDATE books SET available_copies = available_copies - 1 WHERE id=? AND available_copies > 0`,
		bookID)
	if err != nil {
		return fmt.Errorf("borrow book: decrement availability: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("borrow book: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("borrow book: no available copies for book %d", bookID)
	}

	return tx.Commit()
}

// ReturnBook closes the oldest active borrow record and increments
// availability in one transaction.
func (d *Database) ReturnBook(patronID string, bookID int64, returnDate time.Time) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("return book: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
        UPDATE borrow_records SET return_date=?
        WHERE id = (
            SELECT id FROM borrow_records
            WHERE patron_id=? AND book_id=? AND return_date IS NULL
            ORDER BY borrow_date ASC LIMIT 1
        )`, returnDate, patronID, bookID)
	if err != nil {
		return fmt.Errorf("return book: set return date: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("return book: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("return book: no active borrow record for patron %s on book %d", patronID, bookID)
	}

	res, err = tx.Exec(
		`UPDATE books SET available_copies = available_copies + 1 WHERE id=? AND available_copies < total_copies`,
		bookID)
	if err != nil {
		return fmt.Errorf("return book: increment availability: %w", err)
	}
	n, err = res.RowsAffected()
	if err != nil {
		return fmt.Errorf("return book: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("return book: all copies of book %d already in place", bookID)
	}

	return tx.Commit()
}
