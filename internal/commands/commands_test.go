package commands_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"booktrack/internal/commands"
	"booktrack/internal/config"
	"booktrack/internal/exitcode"
	"booktrack/internal/lookup"
	"booktrack/internal/service"
	"booktrack/internal/testutil"
)

// runCommand is a helper to run a command with FakeService.
func runCommand(t *testing.T, cmd commands.Command, svc *testutil.FakeService, args []string, quiet bool) (stdout, stderr string, code int) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer

	cfg := &config.Config{
		Dir:    t.TempDir(),
		Quiet:  quiet,
		APIURL: config.DefaultAPIURL,
	}

	ctx := context.Background()
	code = cmd.Run(ctx, cfg, svc, args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

// newLibrary returns a FakeService holding Dune (reading) and Emma (completed).
func newLibrary() *testutil.FakeService {
	svc := testutil.NewFakeService()
	svc.AddBook("", "Dune", "Frank Herbert", service.StatusReading)
	svc.AddBook("", "Emma", "Jane Austen", service.StatusCompleted)
	return svc
}

// Tests for version command
func TestVersionCommand(t *testing.T) {
	cmd := &commands.VersionCmd{}

	stdout, stderr, code := runCommand(t, cmd, nil, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "booktrack 0.1.0\n" {
		t.Errorf("expected version output, got %q", stdout)
	}
	if commands.UserAgent() != "booktrack/0.1.0" {
		t.Errorf("unexpected user agent %q", commands.UserAgent())
	}
}

// Tests for help command
func TestHelpCommand(t *testing.T) {
	cmd := &commands.HelpCmd{}

	stdout, stderr, code := runCommand(t, cmd, nil, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if !strings.Contains(stdout, "Usage:") {
		t.Error("help output should contain 'Usage:'")
	}
	for _, want := range []string{
		"booktrack status <ref> <reading|completed|wishlist>",
		"(alias: mark)",
		"--config <dir>",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected help to contain %q", want)
		}
	}
}

// Tests for list command
func TestListCommand_WithBooks(t *testing.T) {
	svc := newLibrary()

	cmd := &commands.ListCmd{}
	stdout, stderr, code := runCommand(t, cmd, svc, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}

	expected := "   1  reading    Dune by Frank Herbert\n" +
		"   2  completed  Emma by Jane Austen\n" +
		"\n" +
		"Total: 2  Reading: 1  Completed: 1  Wishlist: 0\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestListCommand_Quiet(t *testing.T) {
	cmd := &commands.ListCmd{}
	stdout, _, code := runCommand(t, cmd, newLibrary(), nil, true)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	expected := "   1  reading    Dune by Frank Herbert\n   2  completed  Emma by Jane Austen\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestListCommand_Empty(t *testing.T) {
	cmd := &commands.ListCmd{}
	stdout, _, code := runCommand(t, cmd, testutil.NewFakeService(), nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "no books found\n" {
		t.Errorf("expected %q, got %q", "no books found\n", stdout)
	}
}

func TestListCommand_StatusFilter(t *testing.T) {
	svc := newLibrary()

	cmd := &commands.ListCmd{}
	cmd.SetStatus("completed")
	stdout, _, code := runCommand(t, cmd, svc, nil, true)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "   1  completed  Emma by Jane Austen\n" {
		t.Errorf("unexpected output %q", stdout)
	}
	if svc.LastFilter.Status != service.StatusCompleted {
		t.Errorf("expected completed filter sent, got %v", svc.LastFilter)
	}
}

func TestListCommand_InvalidStatus(t *testing.T) {
	svc := newLibrary()

	cmd := &commands.ListCmd{}
	cmd.SetStatus("unread")
	_, stderr, code := runCommand(t, cmd, svc, nil, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: invalid status: unread\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if svc.ListCalls != 0 {
		t.Errorf("expected no server call")
	}
}

func TestListCommand_SessionExpired(t *testing.T) {
	svc := newLibrary()
	svc.ListBooksErr = service.NewHTTPError(http.StatusUnauthorized, service.ErrorBody{})

	cmd := &commands.ListCmd{}
	stdout, stderr, code := runCommand(t, cmd, svc, nil, false)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if stdout != "" {
		t.Errorf("expected no stdout, got %q", stdout)
	}
	if !strings.Contains(stderr, "run: booktrack login") {
		t.Errorf("expected login hint, got %q", stderr)
	}
}

func TestListCommand_NetworkError(t *testing.T) {
	svc := newLibrary()
	svc.ListBooksErr = &service.NetworkError{Op: "GET /books", Err: errors.New("connection refused")}

	cmd := &commands.ListCmd{}
	_, stderr, code := runCommand(t, cmd, svc, nil, false)

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	expected := "error: cannot reach server: GET /books: connection refused\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

// Tests for stats command
func TestStatsCommand(t *testing.T) {
	svc := newLibrary()
	svc.AddBook("", "Neuromancer", "William Gibson", service.StatusWishlist)

	cmd := &commands.StatsCmd{}
	stdout, _, code := runCommand(t, cmd, svc, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	expected := "Total: 3  Reading: 1  Completed: 1  Wishlist: 1\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

// Tests for add command
func TestAddCommand(t *testing.T) {
	svc := testutil.NewFakeService()

	cmd := &commands.AddCmd{}
	cmd.SetAuthor(" Frank Herbert ")
	stdout, stderr, code := runCommand(t, cmd, svc, []string{"Dune", "Messiah"}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "added: Dune Messiah by Frank Herbert\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	books := svc.Books()
	if len(books) != 1 || books[0].Status != service.StatusReading {
		t.Errorf("expected one reading book, got %+v", books)
	}
}

func TestAddCommand_Status(t *testing.T) {
	svc := testutil.NewFakeService()

	cmd := &commands.AddCmd{}
	cmd.SetAuthor("Jane Austen")
	cmd.SetStatus("Wishlist")
	_, _, code := runCommand(t, cmd, svc, []string{"Emma"}, true)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if got := svc.Books()[0].Status; got != service.StatusWishlist {
		t.Errorf("expected wishlist, got %q", got)
	}
}

func TestAddCommand_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		author string
		status string
		args   []string
		want   string
	}{
		{"no title", "A", "", nil, "error: invalid book: title required\n"},
		{"no author", "", "", []string{"Dune"}, "error: invalid book: author required\n"},
		{"bad status", "A", "done", []string{"Dune"}, "error: invalid status: done\n"},
		{"long title", "A", "", []string{strings.Repeat("x", 501)}, "error: invalid book: title too long: 501 characters (max 500)\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := testutil.NewFakeService()
			cmd := &commands.AddCmd{}
			cmd.SetAuthor(tt.author)
			cmd.SetStatus(tt.status)
			_, stderr, code := runCommand(t, cmd, svc, tt.args, false)

			if code != exitcode.UserError {
				t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
			}
			if stderr != tt.want {
				t.Errorf("expected %q, got %q", tt.want, stderr)
			}
			if svc.CreateCalls != 0 {
				t.Error("expected no server call")
			}
		})
	}
}

func TestAddCommand_ServerRejects(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.CreateBookErr = service.NewHTTPError(http.StatusUnprocessableEntity, service.ErrorBody{
		Detail:    "Field required",
		HasDetail: true,
	})

	cmd := &commands.AddCmd{}
	cmd.SetAuthor("A")
	_, stderr, code := runCommand(t, cmd, svc, []string{"T"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: Field required\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

type fakeSearcher struct {
	found []lookup.Candidate
	err   error
	query string
	limit int
}

func (f *fakeSearcher) Search(ctx context.Context, query string, limit int) ([]lookup.Candidate, error) {
	f.query = query
	f.limit = limit
	return f.found, f.err
}

func TestAddCommand_Lookup(t *testing.T) {
	svc := testutil.NewFakeService()
	searcher := &fakeSearcher{found: []lookup.Candidate{
		{Title: "Good Omens", Authors: []string{"Terry Pratchett", "Neil Gaiman"}},
	}}

	cmd := &commands.AddCmd{}
	cmd.SetLookup("good omens", searcher)
	stdout, stderr, code := runCommand(t, cmd, svc, nil, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "added: Good Omens by Terry Pratchett, Neil Gaiman\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if searcher.query != "good omens" || searcher.limit != 1 {
		t.Errorf("unexpected search %q limit %d", searcher.query, searcher.limit)
	}
}

func TestAddCommand_LookupKeepsExplicitFields(t *testing.T) {
	svc := testutil.NewFakeService()
	searcher := &fakeSearcher{found: []lookup.Candidate{{Title: "Dune (Deluxe Edition)", Authors: []string{"Frank Herbert"}}}}

	cmd := &commands.AddCmd{}
	cmd.SetLookup("dune", searcher)
	_, _, code := runCommand(t, cmd, svc, []string{"Dune"}, true)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if b := svc.Books()[0]; b.Title != "Dune" || b.Author != "Frank Herbert" {
		t.Errorf("expected explicit title with looked-up author, got %+v", b)
	}
}

func TestAddCommand_LookupNoResults(t *testing.T) {
	svc := testutil.NewFakeService()

	cmd := &commands.AddCmd{}
	cmd.SetLookup("zzzz", &fakeSearcher{})
	_, stderr, code := runCommand(t, cmd, svc, nil, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: no books found for \"zzzz\"\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if svc.CreateCalls != 0 {
		t.Error("expected no server call")
	}
}

// Tests for rm command
func TestRmCommand_ByNumber(t *testing.T) {
	svc := newLibrary()

	cmd := &commands.RmCmd{}
	stdout, stderr, code := runCommand(t, cmd, svc, []string{"2"}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("expected %q, got %q", "ok\n", stdout)
	}
	books := svc.Books()
	if len(books) != 1 || books[0].Title != "Dune" {
		t.Errorf("expected only Dune left, got %+v", books)
	}
}

func TestRmCommand_ByID(t *testing.T) {
	svc := newLibrary()
	id := svc.Books()[0].ID

	cmd := &commands.RmCmd{}
	_, _, code := runCommand(t, cmd, svc, []string{strings.ToUpper(id)}, true)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if svc.ListCalls != 0 {
		t.Errorf("expected no listing for an id reference, got %d", svc.ListCalls)
	}
	if len(svc.Books()) != 1 {
		t.Errorf("expected one book left")
	}
}

func TestRmCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
		want string
	}{
		{"no ref", nil, exitcode.UserError, "error: book reference required\n"},
		{"bad ref", []string{"abc"}, exitcode.UserError, "error: invalid book reference: abc\n"},
		{"out of range", []string{"5"}, exitcode.UserError, "error: book number out of range: 5\n"},
		{"unknown id", []string{"9b2f7c1e-3d4a-4f5b-8c6d-7e8f9a0b1c2d"}, exitcode.UserError, "error: Book not found or unauthorized\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newLibrary()
			cmd := &commands.RmCmd{}
			_, stderr, code := runCommand(t, cmd, svc, tt.args, false)

			if code != tt.code {
				t.Errorf("expected exit code %d, got %d", tt.code, code)
			}
			if stderr != tt.want {
				t.Errorf("expected %q, got %q", tt.want, stderr)
			}
			if len(svc.Books()) != 2 {
				t.Error("expected no book removed")
			}
		})
	}
}

// Tests for status command
func TestStatusCommand(t *testing.T) {
	svc := newLibrary()

	cmd := &commands.StatusCmd{}
	stdout, stderr, code := runCommand(t, cmd, svc, []string{"1", "completed"}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "Dune: completed\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if svc.Books()[0].Status != service.StatusCompleted {
		t.Error("expected status changed on the server")
	}
}

func TestStatusCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no status", []string{"1"}, "error: status required\n"},
		{"bad status", []string{"1", "finished"}, "error: invalid status: finished\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newLibrary()
			cmd := &commands.StatusCmd{}
			_, stderr, code := runCommand(t, cmd, svc, tt.args, false)

			if code != exitcode.UserError {
				t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
			}
			if stderr != tt.want {
				t.Errorf("expected %q, got %q", tt.want, stderr)
			}
			if svc.StatusCalls != 0 {
				t.Error("expected no server call")
			}
		})
	}
}

// Tests for summary command
func TestSummaryCommand(t *testing.T) {
	svc := newLibrary()

	cmd := &commands.SummaryCmd{}
	stdout, stderr, code := runCommand(t, cmd, svc, []string{"1"}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	expected := "Dune by Frank Herbert\n\nA summary of Dune by Frank Herbert.\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestSummaryCommand_ServerError(t *testing.T) {
	svc := newLibrary()
	svc.FetchSummaryErr = service.NewHTTPError(http.StatusInternalServerError, service.ErrorBody{
		Detail:    "Failed to generate summary",
		HasDetail: true,
	})

	cmd := &commands.SummaryCmd{}
	_, stderr, code := runCommand(t, cmd, svc, []string{"1"}, false)

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if stderr != "error: backend error: Failed to generate summary\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

// Tests for lookup command
func TestLookupCommand(t *testing.T) {
	searcher := &fakeSearcher{found: []lookup.Candidate{
		{Title: "Dune", Authors: []string{"Frank Herbert"}, Published: "1965"},
		{Title: "Dune Messiah", Authors: []string{"Frank Herbert"}},
	}}

	cmd := &commands.LookupCmd{}
	cmd.SetSearcher(searcher)
	cmd.SetLimit(2)
	stdout, _, code := runCommand(t, cmd, nil, []string{"frank", "herbert"}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	expected := "   1  Dune by Frank Herbert (1965)\n   2  Dune Messiah by Frank Herbert\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
	if searcher.query != "frank herbert" || searcher.limit != 2 {
		t.Errorf("unexpected search %q limit %d", searcher.query, searcher.limit)
	}
}

func TestLookupCommand_Errors(t *testing.T) {
	cmd := &commands.LookupCmd{}
	cmd.SetSearcher(&fakeSearcher{err: service.NewHTTPError(http.StatusUnauthorized, service.ErrorBody{
		Detail:    "API key not valid",
		HasDetail: true,
	})})
	cmd.SetLimit(5)
	_, stderr, code := runCommand(t, cmd, nil, []string{"dune"}, false)

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if stderr != "error: book lookup failed: API key not valid\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}

	cmd.SetLimit(0)
	_, stderr, code = runCommand(t, cmd, nil, []string{"dune"}, false)
	if code != exitcode.UserError || !strings.Contains(stderr, "invalid limit") {
		t.Errorf("expected invalid limit error, got %d %q", code, stderr)
	}

	cmd.SetLimit(5)
	_, stderr, code = runCommand(t, cmd, nil, nil, false)
	if code != exitcode.UserError || stderr != "error: search query required\n" {
		t.Errorf("expected query required error, got %d %q", code, stderr)
	}
}

func TestLookupCommand_NoResults(t *testing.T) {
	cmd := &commands.LookupCmd{}
	cmd.SetSearcher(&fakeSearcher{})
	cmd.SetLimit(5)
	stdout, _, code := runCommand(t, cmd, nil, []string{"zzzz"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "no books found\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
}

// Tests for shell command
func TestShellCommand_Session(t *testing.T) {
	svc := newLibrary()

	script := strings.Join([]string{
		"add Neuromancer | William Gibson | wishlist",
		"mark 1 completed",
		"summary 1",
		"ls",
		"summary 1",
		"filter completed",
		"rm 1",
		"bogus",
		"quit",
	}, "\n")

	cmd := &commands.ShellCmd{}
	cmd.SetInput(strings.NewReader(script))
	stdout, stderr, code := runCommand(t, cmd, svc, nil, true)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	for _, want := range []string{
		"   1  reading    Dune by Frank Herbert\n",
		"added: Neuromancer by William Gibson\n",
		"Neuromancer: completed\n",
		"Neuromancer by William Gibson\n\nA summary of Neuromancer by William Gibson.\n",
		"   1  completed  Neuromancer by William Gibson\n        A summary of Neuromancer by William Gibson.\n",
		"summary hidden: Neuromancer\n",
		"Total: 2  Reading: 0  Completed: 2  Wishlist: 0\n",
		"deleted: Neuromancer\n",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, stdout)
		}
	}
	if !strings.Contains(stderr, "unknown command: bogus") {
		t.Errorf("expected unknown command error, got %q", stderr)
	}

	books := svc.Books()
	if len(books) != 2 || books[0].Title != "Dune" || books[1].Title != "Emma" {
		t.Errorf("expected Dune and Emma left, got %+v", books)
	}
	if svc.ListCalls != 2 {
		t.Errorf("expected initial load and one filter load, got %d", svc.ListCalls)
	}
	if svc.SummaryCalls != 1 {
		t.Errorf("expected one summary fetch, got %d", svc.SummaryCalls)
	}
}

func TestShellCommand_ErrorsKeepSessionAlive(t *testing.T) {
	svc := newLibrary()
	svc.DeleteBookErr = ErrServer

	cmd := &commands.ShellCmd{}
	cmd.SetInput(strings.NewReader("rm 1\nrm 9\nfilter someday\nadd no author\nstats\n"))
	stdout, stderr, code := runCommand(t, cmd, svc, nil, true)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d at end of input, got %d", exitcode.Success, code)
	}
	for _, want := range []string{
		"error: backend error: Request failed with status 500",
		"error: book number out of range: 9",
		"error: invalid status: someday",
		"error: usage: add <title> | <author> [| <status>]",
	} {
		if !strings.Contains(stderr, want) {
			t.Errorf("expected stderr to contain %q, got %q", want, stderr)
		}
	}
	if !strings.HasSuffix(stdout, "Total: 2  Reading: 1  Completed: 1  Wishlist: 0\n") {
		t.Errorf("expected stats at the end, got %q", stdout)
	}
	if len(svc.Books()) != 2 {
		t.Error("expected no book removed")
	}
}

func TestShellCommand_SessionExpiredEndsShell(t *testing.T) {
	svc := newLibrary()
	svc.SetStatusErr = service.NewHTTPError(http.StatusUnauthorized, service.ErrorBody{})

	cmd := &commands.ShellCmd{}
	cmd.SetInput(strings.NewReader("mark 1 completed\nstats\n"))
	stdout, stderr, code := runCommand(t, cmd, svc, nil, true)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if !strings.Contains(stderr, "run: booktrack login") {
		t.Errorf("expected login hint, got %q", stderr)
	}
	if strings.Count(stdout, "Total:") != 1 {
		t.Errorf("expected the shell to stop before stats, got %q", stdout)
	}
}

func TestShellCommand_InitialLoadFails(t *testing.T) {
	svc := newLibrary()
	svc.ListBooksErr = service.ErrUnauthenticated

	cmd := &commands.ShellCmd{}
	cmd.SetInput(strings.NewReader("ls\n"))
	stdout, _, code := runCommand(t, cmd, svc, nil, false)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if stdout != "" {
		t.Errorf("expected no output, got %q", stdout)
	}
}

// ErrServer is a generic 500 without detail.
var ErrServer = service.NewHTTPError(http.StatusInternalServerError, service.ErrorBody{})

// Tests for whoami command
func TestWhoamiCommand(t *testing.T) {
	claims := jwt.MapClaims{
		"sub":   "user-1",
		"email": "reader@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	t.Setenv(config.EnvToken, token)

	cmd := &commands.WhoamiCmd{}
	stdout, stderr, code := runCommand(t, cmd, newLibrary(), nil, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	for _, want := range []string{
		"user: reader@example.com\n",
		"id: user-1\n",
		"expires: ",
		"api: ok (http://localhost:8000)\n",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected output to contain %q, got %q", want, stdout)
		}
	}
}

func TestWhoamiCommand_OpaqueTokenUnreachableAPI(t *testing.T) {
	t.Setenv(config.EnvToken, "opaque-token")

	svc := newLibrary()
	svc.PingErr = errors.New("connection refused")

	cmd := &commands.WhoamiCmd{}
	stdout, _, code := runCommand(t, cmd, svc, nil, false)

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	expected := "user: unknown (opaque token)\napi: unreachable (connection refused)\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestWhoamiCommand_NotLoggedIn(t *testing.T) {
	t.Setenv(config.EnvToken, "")

	cmd := &commands.WhoamiCmd{}
	_, stderr, code := runCommand(t, cmd, newLibrary(), nil, false)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if !strings.Contains(stderr, "not logged in") {
		t.Errorf("expected not logged in error, got %q", stderr)
	}
}

// Tests for the command registry
func TestDefaultRegistry(t *testing.T) {
	for _, name := range []string{
		"list", "ls", "stats", "add", "create", "rm", "delete", "status", "mark",
		"summary", "lookup", "search", "shell", "login", "logout", "whoami", "version", "help",
	} {
		if _, ok := commands.DefaultRegistry.Find(name); !ok {
			t.Errorf("expected command %q to be registered", name)
		}
	}

	cmd, _ := commands.DefaultRegistry.Find("mark")
	if cmd.Name() != "status" {
		t.Errorf("expected mark to alias status, got %q", cmd.Name())
	}
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	r := commands.NewRegistry()
	if err := r.Register(&commands.RmCmd{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register(&commands.RmCmd{}); err == nil {
		t.Error("expected duplicate name to be rejected")
	}

	all := r.All()
	if len(all) != 1 || all[0].Name() != "rm" {
		t.Errorf("expected only rm, got %d commands", len(all))
	}
}

func TestRegistry_FindIsCaseInsensitive(t *testing.T) {
	r := commands.NewRegistry()
	if err := r.Register(&commands.StatusCmd{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{"status", "STATUS", " Mark "} {
		cmd, ok := r.Find(name)
		if !ok || cmd.Name() != "status" {
			t.Errorf("expected %q to find status", name)
		}
	}
	if err := r.Register(&commands.StatusCmd{}); err == nil || !strings.Contains(err.Error(), "already registered: status") {
		t.Errorf("expected duplicate error, got %v", err)
	}
}
