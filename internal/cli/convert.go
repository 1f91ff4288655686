package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrlokans/ne2keep/internal/audit"
	"github.com/mrlokans/ne2keep/internal/converter"
	"github.com/mrlokans/ne2keep/internal/database"
	"github.com/mrlokans/ne2keep/internal/database/runs"
	"github.com/mrlokans/ne2keep/internal/entities"
	"github.com/mrlokans/ne2keep/internal/importer"
	"github.com/mrlokans/ne2keep/internal/keep"
	"github.com/mrlokans/ne2keep/internal/notesdb"
	"github.com/mrlokans/ne2keep/internal/tokenstore"
)

type convertOptions struct {
	DBPath   string
	Email    string
	Password string
	NoCache  bool
}

func newConvertCommand(a *app) *cobra.Command {
	opts := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert DB_PATH",
		Short: "Import every note of DB_PATH into Google Keep",
		Long: `Import every note of the SQLite note database at DB_PATH into Google Keep.

Folders become labels, created only when no label with the same name
exists. Each note and checklist is created and synced one at a time; a
failure stops the run and notes already created stay in Keep.

Missing credentials are prompted for. After a successful login the
Google master token is cached encrypted in the state database, so later
runs only need --email.`,
		Example: `  ne2keep convert ~/backup/notes.db --email you@gmail.com
  ne2keep convert notes.db --email you@gmail.com --no-cache`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.DBPath = args[0]
			return a.runConvert(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "Google account email (default: KEEP_EMAIL, prompted if empty)")
	cmd.Flags().StringVar(&opts.Password, "password", "", "Google account password or app password (prompted if needed)")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "Neither use nor store a cached master token")

	return cmd
}

func (a *app) runConvert(ctx context.Context, opts *convertOptions) error {
	dbPath, err := filepath.Abs(opts.DBPath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}

	reader, err := notesdb.NewReader(dbPath)
	if err != nil {
		return err
	}

	email := strings.TrimSpace(opts.Email)
	if email == "" {
		email = a.cfg.Keep.Email
	}
	if email == "" {
		if email, err = a.prompter.Email(); err != nil {
			return err
		}
	}

	if err := a.cfg.EnsureStateDir(); err != nil {
		return err
	}
	state, err := database.NewDatabase(a.cfg.State.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}
	defer state.Close()

	journal := audit.NewService(runs.NewRepository(state.DB))
	retention := time.Duration(a.cfg.State.RunRetentionDays) * 24 * time.Hour
	if pruned, err := journal.Prune(retention); err != nil {
		log.Printf("Failed to prune old migration runs: %v", err)
	} else if pruned > 0 {
		log.Printf("Pruned %d migration runs older than %d days", pruned, a.cfg.State.RunRetentionDays)
	}

	run, err := journal.Start(reader.Path(), email)
	if err != nil {
		log.Printf("Failed to record migration run: %v", err)
	}

	var totals audit.Totals
	err = a.convert(ctx, reader, email, opts, &totals)
	journal.FinishQuietly(run, totals, err)

	if errors.Is(err, keep.ErrAuthentication) {
		log.Printf("Authentication failed for %s: %v", email, err)
		fmt.Fprintln(a.errOut, "Cannot connect to Google Keep")
		return fmt.Errorf("%w: %w", ErrReported, err)
	}
	return err
}

func (a *app) convert(ctx context.Context, reader *notesdb.Reader, email string, opts *convertOptions, totals *audit.Totals) error {
	fmt.Fprintln(a.out, "Connecting to Google Keep...")
	session, err := a.authenticate(ctx, email, opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Connected")

	fmt.Fprintln(a.out, "Connecting to DB")
	if err := reader.Open(ctx); err != nil {
		return err
	}
	defer reader.Close()

	fmt.Fprintln(a.out, "Reading notes")
	rows, err := reader.Notes(ctx)
	if err != nil {
		return err
	}
	totals.RowsRead = len(rows)

	conv := converter.NewConverter(reader, log.Default())
	items, err := conv.TransformAll(ctx, rows)
	totals.Warnings = len(conv.Warnings())
	if err != nil {
		return err
	}

	pipeline := importer.NewPipeline(importer.NewKeepDestination(session), a.out, log.Default())
	result, err := pipeline.Run(ctx, items)
	totals.LabelsCreated = result.LabelsCreated
	totals.ItemsTotal = result.ItemsTotal
	totals.ItemsImported = result.Imported.Imported()
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Done")
	fmt.Fprintf(a.out, "Imported %d notes and %d checklists, created %d labels\n",
		result.Imported.Notes, result.Imported.Checklists, result.LabelsCreated)
	if totals.Warnings > 0 {
		fmt.Fprintf(a.out, "%d notes had an unsupported priority and were left uncolored\n", totals.Warnings)
	}
	return nil
}

// authenticate resumes a cached session when possible and falls back to a
// password login. A cached token the server rejects is discarded.
func (a *app) authenticate(ctx context.Context, email string, opts *convertOptions) (*keep.Keep, error) {
	var store *tokenstore.TokenStore
	if a.cfg.Token.CacheEnabled && !opts.NoCache {
		s, err := a.openTokenStore()
		if err != nil {
			log.Printf("Token cache unavailable: %v", err)
		} else {
			store = s
			defer store.Close()
		}
	}

	if store != nil {
		session, err := a.resume(ctx, store, email)
		if err != nil || session != nil {
			return session, err
		}
	}

	password := opts.Password
	if password == "" {
		var err error
		if password, err = a.prompter.Password(email); err != nil {
			return nil, err
		}
	}

	session := keep.New(a.keepOptions(""))
	if err := session.Login(ctx, email, password); err != nil {
		return nil, err
	}

	if store != nil {
		err := store.SaveToken(&entities.DecryptedKeepToken{
			Email:       email,
			MasterToken: session.MasterToken(),
			DeviceID:    session.DeviceID(),
		})
		if err != nil {
			log.Printf("Failed to cache master token: %v", err)
		}
	}
	return session, nil
}

// resume returns nil, nil when there is no usable cached token.
func (a *app) resume(ctx context.Context, store *tokenstore.TokenStore, email string) (*keep.Keep, error) {
	cached, err := store.GetToken(email)
	if err != nil {
		log.Printf("Ignoring cached token for %s: %v", email, err)
		return nil, nil
	}
	if cached == nil {
		return nil, nil
	}

	session := keep.New(a.keepOptions(cached.DeviceID))
	err = session.Resume(ctx, email, cached.MasterToken)
	if errors.Is(err, keep.ErrAuthentication) {
		log.Printf("Cached token for %s was rejected, asking for the password", email)
		if _, err := store.DeleteToken(email); err != nil {
			log.Printf("Failed to delete cached token: %v", err)
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := store.UpdateLastUsed(email); err != nil {
		log.Printf("Failed to update token usage: %v", err)
	}
	return session, nil
}

func (a *app) keepOptions(deviceID string) keep.Options {
	return keep.Options{
		AuthURL:    a.cfg.Keep.AuthURL,
		APIURL:     a.cfg.Keep.APIURL,
		HTTPClient: &http.Client{Timeout: a.cfg.Keep.HTTPTimeout},
		DeviceID:   deviceID,
	}
}
