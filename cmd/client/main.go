// Package main runs the interactive Wiki client: a terminal surface
// over the Wiki API with a persisted session, guest bootstrap and
// permission-gated commands.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mfadhilr/wikiclient/internal/client/api"
	"github.com/mfadhilr/wikiclient/internal/client/perm"
	"github.com/mfadhilr/wikiclient/internal/client/session"
	"github.com/mfadhilr/wikiclient/internal/client/staging"
	"github.com/mfadhilr/wikiclient/internal/client/store"
	"github.com/mfadhilr/wikiclient/internal/client/timefmt"
	"github.com/mfadhilr/wikiclient/internal/config"
	"github.com/mfadhilr/wikiclient/internal/logger"
	"github.com/mfadhilr/wikiclient/internal/models"
)

var (
	version   string
	buildDate string
)

// cmpOr mirrors cmp.Or, which needs Go 1.22+; the build toolchain is Go 1.21.
func cmpOr[T comparable](vals ...T) T {
	var zero T
	for _, v := range vals {
		if v != zero {
			return v
		}
	}
	return zero
}

// app bundles the wired client pieces the REPL commands operate on.
type app struct {
	api     *api.Client
	mgr     *session.Manager
	store   *store.Store
	board   *staging.Board
	surface *termSurface
	log     *zap.Logger
	in      *bufio.Scanner
}

func main() {
	opts, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wiki Client\nVersion: %s\nBuild Date: %s\n",
		cmpOr(version, "N/A"), cmpOr(buildDate, "N/A"))

	log := logger.New()
	if err := log.Init(opts.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Log.Sync() }()

	st, err := store.Open(opts.StorePath, log.Log)
	if err != nil {
		log.Log.Fatal("cannot open session store", zap.Error(err))
	}
	// Every surface re-derives its identity from the store on change.
	st.Subscribe(func() {
		if id := st.Identity(); id != nil {
			log.Log.Debug("session changed", zap.String("role", id.Role), zap.Int("role_id", id.RoleID))
		}
	})

	in := bufio.NewScanner(os.Stdin)
	surface := &termSurface{path: session.LandingPath, in: in}
	guard := session.NewGuard(st, surface, surface, log.Log)
	client := api.New(opts.BaseURL, st, guard, log.Log, api.WithTimeout(opts.Timeout()))
	mgr := session.NewManager(st, client, log.Log)

	a := &app{
		api:     client,
		mgr:     mgr,
		store:   st,
		board:   staging.New(client, log.Log),
		surface: surface,
		log:     log.Log,
		in:      in,
	}

	// Landing surface shown: make sure a credential exists.
	ctx := context.Background()
	mgr.Bootstrap(ctx)
	a.showHome(ctx)
	a.repl(ctx)
}

// repl reads commands until exit or EOF.
func (a *app) repl(ctx context.Context) {
	for {
		if a.surface.consumeStale() {
			a.showHome(ctx)
		}
		fmt.Print("wiki> ")
		if !a.in.Scan() {
			return
		}
		args := strings.Fields(strings.TrimSpace(a.in.Text()))
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "help":
			fmt.Println("Commands: help, home, search <q>, open <id>, login, logout, whoami,")
			fmt.Println("  add, edit <id>, delete <id>, approve <id>, reject <id>, resubmit <id>,")
			fmt.Println("  subadd <id>, subdel <id>, drafts, mine, manage, history,")
			fmt.Println("  users, adduser, edituser <id>, deluser <id>,")
			fmt.Println("  roles, grant <role> <perm>, revoke <role> <perm>, saveperms, exit")
		case "home":
			a.surface.Replace(session.LandingPath)
			a.mgr.Bootstrap(ctx)
			a.showHome(ctx)
		case "search":
			a.search(ctx, strings.Join(args[1:], " "))
		case "open":
			a.open(ctx, args[1:])
		case "login":
			a.login(ctx)
		case "logout":
			a.mgr.Logout(ctx)
			a.surface.Replace(session.LandingPath)
			fmt.Println("Logged out")
		case "whoami":
			a.whoami()
		case "add":
			a.addContent(ctx)
		case "edit":
			a.editContent(ctx, args[1:])
		case "delete":
			a.deleteContent(ctx, args[1:])
		case "approve":
			a.approve(ctx, args[1:])
		case "reject":
			a.reject(ctx, args[1:])
		case "resubmit":
			a.resubmit(ctx, args[1:])
		case "subadd":
			a.addSubheading(ctx, args[1:])
		case "subdel":
			a.deleteSubheading(ctx, args[1:])
		case "drafts":
			a.drafts(ctx)
		case "mine":
			a.mine(ctx)
		case "manage":
			a.manage(ctx)
		case "history":
			a.history(ctx)
		case "users":
			a.users(ctx)
		case "adduser":
			a.addUser(ctx)
		case "edituser":
			a.editUser(ctx, args[1:])
		case "deluser":
			a.deleteUser(ctx, args[1:])
		case "roles":
			a.roles(ctx)
		case "grant":
			a.toggle(ctx, args[1:], true)
		case "revoke":
			a.toggle(ctx, args[1:], false)
		case "saveperms":
			a.savePerms(ctx)
		case "exit":
			fmt.Println("Bye")
			return
		default:
			fmt.Println("Unknown command. Type 'help' for a list of commands.")
		}
	}
}

// allowed gates a command on a capability, printing the denial before
// any network call is attempted.
func (a *app) allowed(capability string) bool {
	if !perm.Has(a.store.Identity(), capability) {
		fmt.Println("You do not have permission to perform this action.")
		return false
	}
	return true
}

// recordHistory appends an audit entry after a content mutation.
// Best-effort: a failed write is logged and the mutation stands.
func (a *app) recordHistory(ctx context.Context, contentID int64, action, reason string) {
	id := a.store.Identity()
	if id == nil || id.ID == 0 {
		return
	}
	entry := &models.History{
		ContentID: contentID,
		EditorID:  id.ID,
		Action:    action,
		EditedAt:  timefmt.ToPersisted(time.Now()),
		Reason:    reason,
	}
	if err := a.api.AddHistory(ctx, entry); err != nil {
		a.log.Error("failed to record history", zap.Int64("content_id", contentID), zap.Error(err))
	}
}

func (a *app) showHome(ctx context.Context) {
	list, err := a.api.ActiveContents(ctx)
	if err != nil {
		a.log.Warn("failed to load active contents", zap.Error(err))
		fmt.Println("No results")
		return
	}
	if len(list) == 0 {
		fmt.Println("No results")
		return
	}
	for _, c := range list {
		fmt.Printf("  [%d] %s\n", c.ID, c.Title)
	}
}

func (a *app) search(ctx context.Context, query string) {
	if query == "" {
		fmt.Println("Usage: search <query>")
		return
	}
	list, err := a.api.SearchContent(ctx, query)
	if err != nil {
		fmt.Println("Search failed:", err)
		return
	}
	if len(list) == 0 {
		fmt.Println("No results")
		return
	}
	for _, c := range list {
		fmt.Printf("  [%d] %s\n", c.ID, c.Title)
	}
}

func (a *app) open(ctx context.Context, args []string) {
	id, ok := parseID(args, "open <id>")
	if !ok {
		return
	}
	detail, err := a.api.ContentByID(ctx, id)
	if err != nil {
		fmt.Println("Failed to load content:", err)
		return
	}
	a.surface.Replace(fmt.Sprintf("/content/%d", id))

	c := detail.Content
	fmt.Printf("%s\n  by %s (%s) — %s, tags: %s\n", c.Title, detail.AuthorName, detail.InstanceName, c.Status, c.Tag)
	if c.Description != "" {
		fmt.Println(" ", c.Description)
	}
	for _, sub := range detail.Subheadings {
		fmt.Printf("  ## %s\n  %s\n", sub.Subheading, sub.Description)
	}

	// Passive background fetches: degrade silently on failure.
	if err := a.api.IncrementViewCount(ctx, id); err != nil {
		a.log.Warn("failed to increment view count", zap.Error(err))
	}
	if count, err := a.api.ViewCount(ctx, id); err == nil {
		fmt.Printf("  views: %d\n", count)
	}
	if name, err := a.api.LatestEditorName(ctx, id); err == nil && name != "" {
		fmt.Printf("  last edited by: %s\n", name)
	}
}

func (a *app) login(ctx context.Context) {
	email := promptLine(a.in, "Email: ")
	password := promptLine(a.in, "Password: ")
	id, err := a.mgr.Login(ctx, email, password)
	if err != nil {
		if errors.Is(err, api.ErrSessionExpired) {
			return // recovery already navigated
		}
		fmt.Println("Login failed:", err)
		return
	}
	fmt.Printf("Welcome, %s\n", id.Name)
}

func (a *app) whoami() {
	id := a.store.Identity()
	if id == nil {
		fmt.Println("No session")
		return
	}
	if id.IsGuest() {
		fmt.Printf("Guest (%s), permissions: %s\n", id.Role, strings.Join(id.Permissions, ", "))
		return
	}
	fmt.Printf("%s <%s>, role %d, permissions: %s\n", id.Name, id.Email, id.RoleID, strings.Join(id.Permissions, ", "))
}

func (a *app) addContent(ctx context.Context) {
	if !a.allowed(perm.CreateContent) {
		return
	}
	id := a.store.Identity()
	content := promptContent(a.in)
	content.AuthorID = id.ID
	content.AuthorRoleID = id.RoleID
	content.InstanceID = id.InstanceID

	res, err := a.api.CreateContent(ctx, content)
	if err != nil {
		fmt.Println("Failed to create content:", err)
		return
	}
	fmt.Println("Content created, id", res.ContentID)
	a.recordHistory(ctx, res.ContentID, models.ActionCreating, "")
}

func (a *app) editContent(ctx context.Context, args []string) {
	id, ok := parseID(args, "edit <id>")
	if !ok || !a.allowed(perm.EditContent) {
		return
	}
	content := promptContent(a.in)
	if err := a.api.EditContent(ctx, id, content); err != nil {
		fmt.Println("Failed to edit content:", err)
		return
	}
	fmt.Println("Content updated")
	a.recordHistory(ctx, id, models.ActionEditing, "")
}

func (a *app) deleteContent(ctx context.Context, args []string) {
	id, ok := parseID(args, "delete <id>")
	if !ok || !a.allowed(perm.DeleteContent) {
		return
	}
	if err := a.api.DeleteContent(ctx, id); err != nil {
		fmt.Println("Failed to delete content:", err)
		return
	}
	fmt.Println("Content deleted")
	a.recordHistory(ctx, id, models.ActionDeleting, "")
}

func (a *app) approve(ctx context.Context, args []string) {
	id, ok := parseID(args, "approve <id>")
	if !ok || !a.allowed(perm.ApproveContent) {
		return
	}
	if err := a.api.ApproveContent(ctx, id); err != nil {
		fmt.Println("Failed to approve content:", err)
		return
	}
	fmt.Println("Content approved")
	a.recordHistory(ctx, id, models.ActionApproving, "")
}

func (a *app) reject(ctx context.Context, args []string) {
	id, ok := parseID(args, "reject <id>")
	if !ok || !a.allowed(perm.RejectContent) {
		return
	}
	reason := promptLine(a.in, "Rejection reason: ")
	if err := a.api.RejectContent(ctx, id, reason); err != nil {
		fmt.Println("Failed to reject content:", err)
		return
	}
	fmt.Println("Content rejected")
	a.recordHistory(ctx, id, models.ActionRejecting, reason)
}

func (a *app) resubmit(ctx context.Context, args []string) {
	id, ok := parseID(args, "resubmit <id>")
	if !ok || !a.allowed(perm.CreateContent) {
		return
	}
	content := promptContent(a.in)
	if err := a.api.ResubmitContent(ctx, id, content); err != nil {
		fmt.Println("Failed to resubmit content:", err)
		return
	}
	fmt.Println("Content resubmitted for review")
	a.recordHistory(ctx, id, models.ActionEditing, "")
}

func (a *app) addSubheading(ctx context.Context, args []string) {
	contentID, ok := parseID(args, "subadd <contentID>")
	if !ok || !a.allowed(perm.EditContent) {
		return
	}
	sub := &models.Subheading{
		Subheading:  promptLine(a.in, "Subheading: "),
		Description: promptLine(a.in, "Description: "),
	}
	if id := a.store.Identity(); id != nil {
		sub.AuthorID = id.ID
	}
	if err := a.api.CreateSubheading(ctx, contentID, sub); err != nil {
		fmt.Println("Failed to add subheading:", err)
		return
	}
	fmt.Println("Subheading added")
	a.recordHistory(ctx, contentID, models.ActionEditing, "")
}

func (a *app) deleteSubheading(ctx context.Context, args []string) {
	id, ok := parseID(args, "subdel <id>")
	if !ok || !a.allowed(perm.EditContent) {
		return
	}
	if err := a.api.DeleteSubheading(ctx, id); err != nil {
		fmt.Println("Failed to delete subheading:", err)
		return
	}
	fmt.Println("Subheading deleted")
}

// manage lists every non-rejected article, the moderation overview.
func (a *app) manage(ctx context.Context) {
	if !a.allowed(perm.EditContent) {
		return
	}
	list, err := a.api.NotRejectedContents(ctx)
	if err != nil {
		fmt.Println("Failed to load contents:", err)
		return
	}
	for _, c := range list {
		fmt.Printf("  [%d] %s (%s)\n", c.ID, c.Title, c.Status)
	}
}

func (a *app) drafts(ctx context.Context) {
	if !a.allowed(perm.ApproveContent) {
		return
	}
	list, err := a.api.Drafts(ctx)
	if err != nil {
		fmt.Println("Failed to load drafts:", err)
		return
	}
	if len(list) == 0 {
		fmt.Println("No pending drafts")
		return
	}
	for _, c := range list {
		fmt.Printf("  [%d] %s (%s)\n", c.ID, c.Title, c.Status)
	}
}

func (a *app) mine(ctx context.Context) {
	id := a.store.Identity()
	if id == nil || id.ID == 0 {
		fmt.Println("Log in first")
		return
	}
	list, err := a.api.UserContents(ctx, id.ID)
	if err != nil {
		fmt.Println("Failed to load your contents:", err)
		return
	}
	for _, c := range list {
		status := c.Status
		if c.RejectionReason != "" {
			status += " (" + c.RejectionReason + ")"
		}
		fmt.Printf("  [%d] %s — %s\n", c.ID, c.Title, status)
	}
}

func (a *app) history(ctx context.Context) {
	id := a.store.Identity()
	if id == nil || id.ID == 0 {
		fmt.Println("Log in first")
		return
	}
	list, err := a.api.HistoryByUser(ctx, id.ID)
	if err != nil {
		fmt.Println("Failed to load history:", err)
		return
	}
	for _, h := range list {
		fmt.Printf("  %s  %-10s content %d %s\n", h.EditedAt, h.Action, h.ContentID, h.Reason)
	}
}

// users renders the account list with role and instance names resolved.
// The three lists are independent, so they are fetched concurrently.
func (a *app) users(ctx context.Context) {
	if !a.allowed(perm.EditUser) {
		return
	}
	var (
		list      []models.User
		roles     []models.Role
		instances []models.Instance
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		list, err = a.api.Users(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		roles, err = a.api.Roles(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		instances, err = a.api.Instances(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		fmt.Println("Failed to load users:", err)
		return
	}

	roleNames := make(map[int]string, len(roles))
	for _, r := range roles {
		roleNames[r.ID] = r.Name
	}
	instNames := make(map[int64]string, len(instances))
	for _, inst := range instances {
		instNames[inst.ID] = inst.Name
	}
	for _, u := range list {
		fmt.Printf("  [%d] %s <%s> %s, %s\n", u.ID, u.Name, u.Email, roleNames[u.RoleID], instNames[u.InstanceID])
	}
}

func (a *app) addUser(ctx context.Context) {
	if !a.allowed(perm.CreateUser) {
		return
	}
	var (
		roles     []models.Role
		instances []models.Instance
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		roles, err = a.api.Roles(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		instances, err = a.api.Instances(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		fmt.Println("Failed to load roles and instances:", err)
		return
	}
	fmt.Print("Roles:")
	for _, r := range roles {
		fmt.Printf(" %d=%s", r.ID, r.Name)
	}
	fmt.Println()
	fmt.Print("Instances:")
	for _, inst := range instances {
		fmt.Printf(" %d=%s", inst.ID, inst.Name)
	}
	fmt.Println()

	user := promptUser(a.in)
	if err := a.api.CreateUser(ctx, user); err != nil {
		fmt.Println("Failed to create user:", err)
		return
	}
	fmt.Println("User created")
}

func (a *app) editUser(ctx context.Context, args []string) {
	id, ok := parseID(args, "edituser <id>")
	if !ok || !a.allowed(perm.EditUser) {
		return
	}
	current, err := a.api.UserByID(ctx, id)
	if err != nil {
		fmt.Println("Failed to load user:", err)
		return
	}
	fmt.Printf("Editing %s <%s> role %d instance %d\n", current.Name, current.Email, current.RoleID, current.InstanceID)

	user := promptUser(a.in)
	if err := a.api.EditUser(ctx, id, user); err != nil {
		fmt.Println("Failed to edit user:", err)
		return
	}
	fmt.Println("User updated")
}

func (a *app) deleteUser(ctx context.Context, args []string) {
	id, ok := parseID(args, "deluser <id>")
	if !ok || !a.allowed(perm.DeleteUser) {
		return
	}
	if err := a.api.DeleteUser(ctx, id); err != nil {
		fmt.Println("Failed to delete user:", err)
		return
	}
	fmt.Println("User deleted")
}

func (a *app) roles(ctx context.Context) {
	if !a.allowed(perm.ManageRole) {
		return
	}
	roles, err := a.api.Roles(ctx)
	if err != nil {
		fmt.Println("Failed to load roles:", err)
		return
	}
	perms, err := a.api.Permissions(ctx)
	if err != nil {
		fmt.Println("Failed to load permissions:", err)
		return
	}
	if err := a.board.Refresh(ctx, roles); err != nil {
		fmt.Println("Failed to load role permissions:", err)
		return
	}
	for _, role := range roles {
		fmt.Printf("  [%d] %s:", role.ID, role.Name)
		for _, p := range perms {
			if a.board.Checked(role.ID, p.ID) {
				fmt.Printf(" %s(%d)", p.Name, p.ID)
			}
		}
		fmt.Println()
	}
	if a.board.Dirty() {
		fmt.Println("  (unsaved changes, run 'saveperms')")
	}
}

func (a *app) toggle(ctx context.Context, args []string, checked bool) {
	if !a.allowed(perm.ManageRole) {
		return
	}
	if len(args) < 2 {
		fmt.Println("Usage: grant|revoke <roleID> <permissionID>")
		return
	}
	roleID, err1 := strconv.Atoi(args[0])
	permID, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		fmt.Println("Usage: grant|revoke <roleID> <permissionID>")
		return
	}
	a.board.Toggle(roleID, permID, checked)
	add, remove := a.board.Pending(roleID)
	fmt.Printf("Staged for role %d: +%v -%v\n", roleID, add, remove)
}

func (a *app) savePerms(ctx context.Context) {
	if !a.allowed(perm.ManageRole) {
		return
	}
	if !a.board.Dirty() {
		fmt.Println("Nothing to save")
		return
	}
	roles, err := a.api.Roles(ctx)
	if err != nil {
		fmt.Println("Failed to load roles:", err)
		return
	}
	if err := a.board.Save(ctx, roles); err != nil {
		fmt.Println("Saved with refresh failure:", err)
		return
	}
	fmt.Println("Permissions saved")
}

func parseID(args []string, usage string) (int64, bool) {
	if len(args) < 1 {
		fmt.Println("Usage:", usage)
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Println("Usage:", usage)
		return 0, false
	}
	return id, true
}
