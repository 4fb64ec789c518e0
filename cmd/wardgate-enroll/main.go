// Wardgate enrollment tool
//
// wardgate-enroll manages identities and biometric templates directly
// against the Wardgate database. Enrollment happens on the device where
// the sensors are physically reachable; the admin API only exposes
// read and disable operations.
//
// Usage:
//
//	wardgate-enroll create -name "Alice Smith"
//	wardgate-enroll face -identity idn-1a2b3c4d -encoding encoding.json
//	wardgate-enroll fingerprint -identity idn-1a2b3c4d -slot 3 -template template.bin
//	wardgate-enroll list
//
// The config file is resolved the same way as the daemon: the
// WARDGATE_CONFIG environment variable, falling back to
// configs/config.yaml.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	_ "github.com/wardgate/wardgate-core/migrations"

	"github.com/wardgate/wardgate-core/internal/eventlog"
	"github.com/wardgate/wardgate-core/internal/identity"
	"github.com/wardgate/wardgate-core/internal/infrastructure/config"
	"github.com/wardgate/wardgate-core/internal/infrastructure/database"
)

// Version information - set at build time via ldflags
var version = "dev"

// Default configuration file path, shared with the daemon
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run dispatches to a subcommand, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation
//   - args: Command line arguments without the program name
//   - out: Destination for human-readable output
//
// Returns:
//   - error: nil on success, or error describing failure
func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		usage(out)
		return fmt.Errorf("missing command")
	}

	switch args[0] {
	case "create":
		return runCreate(ctx, args[1:], out)
	case "face":
		return runFace(ctx, args[1:], out)
	case "fingerprint":
		return runFingerprint(ctx, args[1:], out)
	case "list":
		return runList(ctx, args[1:], out)
	case "help", "-h", "--help":
		usage(out)
		return nil
	default:
		usage(out)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage(out io.Writer) {
	fmt.Fprintf(out, `wardgate-enroll %s - identity and template enrollment

Commands:
  create       Create a new identity
  face         Attach a face encoding to an identity
  fingerprint  Assign a fingerprint sensor slot to an identity
  list         List identities and their template counts

Run 'wardgate-enroll <command> -h' for command flags.
`, version)
}

// openDatabase loads config and opens the migrated database.
// The caller owns the returned handle.
func openDatabase(ctx context.Context) (*database.DB, error) {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// runCreate creates a new identity and prints its assigned ID.
func runCreate(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(out)
	name := fs.String("name", "", "display name of the person (required)")
	inactive := fs.Bool("inactive", false, "create the identity disabled")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("create: -name is required")
	}

	db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // process exits after run

	repo := identity.NewRepository(db)
	ident := &identity.Identity{
		ID:     identity.NewID(),
		Name:   *name,
		Active: !*inactive,
	}
	if err := repo.Create(ctx, ident); err != nil {
		return fmt.Errorf("creating identity: %w", err)
	}
	recordEnrollment(ctx, db, fmt.Sprintf("identity %s created", ident.ID))

	fmt.Fprintf(out, "created identity %s (%s, active=%t)\n", ident.ID, ident.Name, ident.Active)
	return nil
}

// runFace attaches a face encoding, read from a JSON file holding a
// single array of floats, to an existing identity.
func runFace(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("face", flag.ContinueOnError)
	fs.SetOutput(out)
	identityID := fs.String("identity", "", "identity ID (required)")
	encodingPath := fs.String("encoding", "", "path to JSON file with the face encoding (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *identityID == "" || *encodingPath == "" {
		return fmt.Errorf("face: -identity and -encoding are required")
	}

	encoding, err := readEncoding(*encodingPath)
	if err != nil {
		return err
	}

	db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // process exits after run

	repo := identity.NewRepository(db)
	if _, err := repo.GetByID(ctx, *identityID); err != nil {
		return fmt.Errorf("looking up identity: %w", err)
	}

	tpl := &identity.FaceTemplate{
		ID:         identity.NewTemplateID(),
		IdentityID: *identityID,
		Encoding:   encoding,
	}
	if err := repo.AddFaceTemplate(ctx, tpl); err != nil {
		return fmt.Errorf("storing face template: %w", err)
	}
	recordEnrollment(ctx, db, fmt.Sprintf("face template %s enrolled for %s", tpl.ID, *identityID))

	fmt.Fprintf(out, "enrolled face template %s for %s (%d dimensions)\n",
		tpl.ID, *identityID, len(encoding))
	return nil
}

// runFingerprint assigns a fingerprint sensor slot to an identity. The
// raw template file never reaches the database; only its hash is kept
// for audit purposes, since matching happens on the sensor itself.
func runFingerprint(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("fingerprint", flag.ContinueOnError)
	fs.SetOutput(out)
	identityID := fs.String("identity", "", "identity ID (required)")
	slot := fs.Int("slot", 0, "sensor template slot, 1-based (required)")
	templatePath := fs.String("template", "", "path to the raw template file (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *identityID == "" || *templatePath == "" {
		return fmt.Errorf("fingerprint: -identity and -template are required")
	}
	if *slot < 1 {
		return fmt.Errorf("fingerprint: -slot must be a positive slot number")
	}

	raw, err := os.ReadFile(*templatePath)
	if err != nil {
		return fmt.Errorf("reading template file: %w", err)
	}
	if len(raw) == 0 {
		return fmt.Errorf("template file %s is empty", *templatePath)
	}

	db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // process exits after run

	repo := identity.NewRepository(db)
	if _, err := repo.GetByID(ctx, *identityID); err != nil {
		return fmt.Errorf("looking up identity: %w", err)
	}

	tpl := &identity.FingerprintTemplate{
		ID:           identity.NewTemplateID(),
		IdentityID:   *identityID,
		SensorSlot:   *slot,
		TemplateHash: identity.HashTemplate(raw),
	}
	if err := repo.AddFingerprintTemplate(ctx, tpl); err != nil {
		return fmt.Errorf("storing fingerprint template: %w", err)
	}
	recordEnrollment(ctx, db, fmt.Sprintf("fingerprint slot %d assigned to %s", *slot, *identityID))

	fmt.Fprintf(out, "assigned fingerprint slot %d to %s (template %s)\n",
		*slot, *identityID, tpl.ID)
	return nil
}

// runList prints all identities with their template counts.
func runList(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(out)
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // process exits after run

	repo := identity.NewRepository(db)
	identities, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("listing identities: %w", err)
	}
	faces, err := repo.ListFaceTemplates(ctx)
	if err != nil {
		return fmt.Errorf("listing face templates: %w", err)
	}
	prints, err := repo.ListFingerprintTemplates(ctx)
	if err != nil {
		return fmt.Errorf("listing fingerprint templates: %w", err)
	}

	faceCounts := make(map[string]int)
	for _, tpl := range faces {
		faceCounts[tpl.IdentityID]++
	}
	slotsByIdentity := make(map[string][]int)
	for _, tpl := range prints {
		slotsByIdentity[tpl.IdentityID] = append(slotsByIdentity[tpl.IdentityID], tpl.SensorSlot)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tACTIVE\tFACES\tFP SLOTS\tCREATED")
	for i := range identities {
		ident := &identities[i]
		fmt.Fprintf(w, "%s\t%s\t%t\t%d\t%v\t%s\n",
			ident.ID, ident.Name, ident.Active,
			faceCounts[ident.ID], slotsByIdentity[ident.ID],
			ident.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing table: %w", err)
	}
	fmt.Fprintf(out, "%d identities\n", len(identities))
	return nil
}

// readEncoding parses a JSON array of floats from a file.
func readEncoding(path string) ([]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading encoding file: %w", err)
	}

	var encoding []float64
	if err := json.Unmarshal(data, &encoding); err != nil {
		return nil, fmt.Errorf("parsing encoding file %s: %w", path, err)
	}
	if len(encoding) == 0 {
		return nil, fmt.Errorf("encoding file %s holds an empty array", path)
	}
	return encoding, nil
}

// recordEnrollment writes a system event; enrollment proceeds even if
// the event cannot be recorded.
func recordEnrollment(ctx context.Context, db *database.DB, message string) {
	events := eventlog.NewRepository(db)
	if err := events.Record(ctx, "info", "enroll", message); err != nil {
		fmt.Fprintf(os.Stderr, "warning: recording enrollment event: %v\n", err)
	}
}

// getConfigPath returns the config file path, preferring the
// WARDGATE_CONFIG environment variable.
func getConfigPath() string {
	if path := os.Getenv("WARDGATE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
