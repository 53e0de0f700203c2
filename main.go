package main

import (
	"fmt"
	"os"
	"strconv"

	"library-management/library"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "library",
		Short:         "Library management backend: catalog, borrowing, late fees and payments",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().String("db", "", "path to the SQLite database (overrides LIBRARY_DB_PATH)")

	root.AddCommand(
		newAddBookCmd(),
		newBorrowCmd(),
		newReturnCmd(),
		newFeeCmd(),
		newPayFeeCmd(),
		newRefundCmd(),
		newSearchCmd(),
		newStatusCmd(),
	)
	return root
}

// openService builds the service from config plus the --db override. The
// returned closer releases the database.
func openService(cmd *cobra.Command) (*library.Service, func(), error) {
	cfg := library.LoadConfig()
	if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
		cfg.DBPath = dbPath
	}

	db, err := library.NewDatabase(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return library.NewService(db, cfg.NewGateway()), func() { db.Close() }, nil
}

func parseBookID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid book ID: %s", arg)
	}
	return id, nil
}

func newAddBookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-book TITLE AUTHOR ISBN COPIES",
		Short: "Add a book to the catalog",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeDB, err := openService(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			// A non-numeric copy count falls through to the engine's own
			// validation message.
			copies, _ := strconv.Atoi(args[3])
			res := svc.AddBook(args[0], args[1], args[2], copies)
			fmt.Println(res.Message)
			if res.OK {
				fmt.Printf("Book ID: %d\n", res.BookID)
			}
			return nil
		},
	}
}

func newBorrowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "borrow PATRON_ID BOOK_ID",
		Short: "Borrow a book for a patron",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := parseBookID(args[1])
			if err != nil {
				return err
			}
			svc, closeDB, err := openService(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			res := svc.BorrowBook(args[0], bookID)
			fmt.Println(res.Message)
			return nil
		},
	}
}

func newReturnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "return PATRON_ID BOOK_ID",
		Short: "Return a borrowed book",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := parseBookID(args[1])
			if err != nil {
				return err
			}
			svc, closeDB, err := openService(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			res := svc.ReturnBook(args[0], bookID)
			fmt.Println(res.Message)
			return nil
		},
	}
}

func newFeeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fee PATRON_ID BOOK_ID",
		Short: "Calculate the late fee a patron owes on a book",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := parseBookID(args[1])
			if err != nil {
				return err
			}
			svc, closeDB, err := openService(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			quote, err := svc.CalculateLateFee(args[0], bookID)
			if err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", quote.Status)
			if quote.Status == library.FeeStatusSuccess {
				fmt.Printf("Days overdue: %d\n", quote.DaysOverdue)
				fmt.Printf("Fee amount: $%.2f\n", quote.FeeAmount)
			}
			return nil
		},
	}
}

func newPayFeeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pay-fee PATRON_ID BOOK_ID",
		Short: "Pay a patron's late fee through the payment gateway",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := parseBookID(args[1])
			if err != nil {
				return err
			}
			svc, closeDB, err := openService(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			outcome := svc.PayLateFee(args[0], bookID)
			fmt.Println(outcome.Message)
			if outcome.Success {
				fmt.Printf("Transaction ID: %s\n", outcome.TransactionID)
			}
			return nil
		},
	}
}

func newRefundCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refund TRANSACTION_ID AMOUNT",
		Short: "Refund a late fee payment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid amount: %s", args[1])
			}
			svc, closeDB, err := openService(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			outcome := svc.RefundLateFeePayment(args[0], amount)
			fmt.Println(outcome.Message)
			return nil
		},
	}
}

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search TYPE TERM",
		Short: "Search the catalog by title, author or isbn",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeDB, err := openService(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			books, err := svc.SearchBooks(args[1], args[0])
			if err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				out, err := json.MarshalIndent(books, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}

			if len(books) == 0 {
				fmt.Printf("No books found matching '%s'.\n", args[1])
				return nil
			}
			fmt.Printf("%-5s %-40s %-25s %-15s %s\n", "ID", "Title", "Author", "ISBN", "Available")
			for _, b := range books {
				fmt.Printf("%-5d %-40s %-25s %-15s %d/%d\n",
					b.ID, truncateString(b.Title, 40), truncateString(b.Author, 25),
					b.ISBN, b.AvailableCopies, b.TotalCopies)
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "print results as JSON")
	return cmd
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status PATRON_ID",
		Short: "Show a patron's current loans and fees owed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeDB, err := openService(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			status, err := svc.PatronStatus(args[0])
			if err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				out, err := json.MarshalIndent(status, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}

			fmt.Printf("Patron %s: %d book(s) borrowed, $%.2f in late fees owed\n",
				status.PatronID, status.BorrowedCount, status.TotalLateFees)
			for _, loan := range status.Loans {
				overdue := "on time"
				if loan.IsOverdue {
					overdue = fmt.Sprintf("%d day(s) overdue, $%.2f", loan.DaysOverdue, loan.LateFee)
				}
				fmt.Printf("  [%d] %s by %s, due %s (%s)\n",
					loan.BookID, loan.Title, loan.Author, loan.DueDate.Format("2006-01-02"), overdue)
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "print the report as JSON")
	return cmd
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength-3] + "..."
}
