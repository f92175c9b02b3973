// Package wikitest provides an in-memory fake of the Wiki API for
// exercising the client without a real server. Token lifecycle is
// scriptable: ExpireAll invalidates every issued credential so the next
// authenticated request earns a 401.
package wikitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mfadhilr/wikiclient/internal/models"
)

type account struct {
	password string
	user     models.User
	perms    []string
	role     string
}

// Server is the fake API. All state is in memory and mutex-guarded.
type Server struct {
	mu sync.Mutex

	tokens          map[string]*models.TokenClaims
	nextToken       int
	guestCalls      int
	guestPerms      []string
	failGuestStatus int
	rejected        int

	nextID      int64
	contents    map[int64]*models.Content
	deleted     map[int64]bool
	subheadings map[int64]*models.Subheading
	users       map[int64]*models.User
	accounts    map[string]account
	roles       []models.Role
	perms       []models.Permission
	rolePerms   map[int]map[int]bool
	histories   []models.History
	instances   []models.Instance

	router chi.Router
}

// New builds a fake server seeded with the standard roles, permission
// catalog and one instance. Guests start with read_content only.
func New() *Server {
	s := &Server{
		tokens:      make(map[string]*models.TokenClaims),
		guestPerms:  []string{"read_content"},
		nextID:      100,
		contents:    make(map[int64]*models.Content),
		deleted:     make(map[int64]bool),
		subheadings: make(map[int64]*models.Subheading),
		users:       make(map[int64]*models.User),
		accounts:    make(map[string]account),
		roles: []models.Role{
			{ID: 1, Name: "Admin"},
			{ID: 2, Name: "Editor"},
			{ID: 3, Name: "Contributor"},
			{ID: 4, Name: "Guest"},
		},
		perms: []models.Permission{
			{ID: 1, Name: "read_content"},
			{ID: 2, Name: "create_content"},
			{ID: 3, Name: "edit_content"},
			{ID: 4, Name: "delete_content"},
			{ID: 5, Name: "approve_content"},
			{ID: 6, Name: "reject_content"},
			{ID: 7, Name: "create_user"},
			{ID: 8, Name: "edit_user"},
			{ID: 9, Name: "delete_user"},
			{ID: 10, Name: "manage_role"},
		},
		rolePerms: map[int]map[int]bool{
			1: {1: true, 2: true, 3: true, 4: true, 5: true, 6: true, 7: true, 8: true, 9: true, 10: true},
			2: {1: true, 2: true, 3: true, 5: true, 6: true},
			3: {1: true, 2: true},
			4: {1: true},
		},
		instances: []models.Instance{{ID: 1, Name: "Pusat"}},
	}
	s.routes()
	return s
}

// Handler returns the HTTP handler, mountable under httptest.NewServer.
func (s *Server) Handler() http.Handler { return s.router }

// AddAccount registers a login account with its permission tags.
func (s *Server) AddAccount(email, password, role string, user models.User, perms ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[email] = account{password: password, user: user, perms: perms, role: role}
	s.users[user.ID] = &user
}

// SeedContent stores an article directly, returning its id.
func (s *Server) SeedContent(c models.Content) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		s.nextID++
		c.ID = s.nextID
	}
	s.contents[c.ID] = &c
	return c.ID
}

// ExpireAll invalidates every issued token.
func (s *Server) ExpireAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]*models.TokenClaims)
}

// GuestCalls reports how many guest credentials have been issued.
func (s *Server) GuestCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.guestCalls
}

// FailGuest makes guest issuance fail with the given status; 0 restores
// normal behavior.
func (s *Server) FailGuest(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failGuestStatus = status
}

// Rejected reports how many requests were turned away with 401.
func (s *Server) Rejected() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rejected
}

// RolePermissionIDs returns the granted permission ids for a role.
func (s *Server) RolePermissionIDs(roleID int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int
	for id := range s.rolePerms[roleID] {
		ids = append(ids, id)
	}
	return ids
}

// Histories returns a copy of the recorded audit trail.
func (s *Server) Histories() []models.History {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.History(nil), s.histories...)
}

func (s *Server) issueToken(claims *models.TokenClaims) string {
	s.nextToken++
	token := fmt.Sprintf("token-%d", s.nextToken)
	s.tokens[token] = claims
	return token
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		_, ok := s.tokens[token]
		s.mu.Unlock()
		if token == "" || !ok {
			s.mu.Lock()
			s.rejected++
			s.mu.Unlock()
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func urlID(r *http.Request, name string) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id
}

func (s *Server) routes() {
	r := chi.NewRouter()

	// Public endpoints
	r.Get("/guest", s.handleGuest)
	r.Post("/decode", s.handleDecode)
	r.Post("/login", s.handleLogin)

	// Everything else requires a live credential
	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/active", s.handleActive)
		r.Get("/notReject", s.handleNotRejected)
		r.Get("/draft", s.handleDrafts)
		r.Get("/content", s.handleSearch)
		r.Get("/content/{id}", s.handleContentByID)
		r.Post("/content/add", s.handleCreateContent)
		r.Put("/content/edit/{id}", s.handleEditContent)
		r.Put("/content/delete/{id}", s.handleDeleteContent)
		r.Put("/content/approve/{id}", s.handleApprove)
		r.Put("/content/reject/{id}", s.handleReject)
		r.Put("/content/resubmit/{id}", s.handleResubmit)
		r.Get("/content/viewcount/{id}", s.handleViewCount)
		r.Put("/content/increment-viewcount/{id}", s.handleIncrementViewCount)
		r.Get("/contents/user/{id}", s.handleUserContents)
		r.Get("/latest-editor-name/{id}", s.handleLatestEditorName)

		r.Post("/subheading/add/{id}", s.handleAddSubheading)
		r.Delete("/subheading/delete/{id}", s.handleDeleteSubheading)

		r.Get("/instances", s.handleInstances)

		r.Get("/users", s.handleUsers)
		r.Get("/user/{id}", s.handleUserByID)
		r.Post("/createuser", s.handleCreateUser)
		r.Put("/user/edit/{id}", s.handleEditUser)
		r.Put("/user/{id}", s.handleDeleteUser)

		r.Get("/roles", s.handleRoles)
		r.Get("/permissions", s.handlePermissions)
		r.Get("/role_permissions", s.handleRolePermissions)
		r.Get("/roles/{id}/permissions", s.handlePermissionsOfRole)
		r.Post("/roles/{id}/permissions/add/{pid}", s.handleAddRolePermission)
		r.Delete("/roles/{id}/permissions/delete/{pid}", s.handleRemoveRolePermission)

		r.Post("/history/add", s.handleAddHistory)
		r.Get("/history/user/{id}", s.handleHistoryByUser)
	})

	s.router = r
}

func (s *Server) handleGuest(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.guestCalls++
	if s.failGuestStatus != 0 {
		status := s.failGuestStatus
		s.mu.Unlock()
		http.Error(w, "guest issuance unavailable", status)
		return
	}
	claims := &models.TokenClaims{Role: "Guest", RoleID: 4, Permissions: append([]string(nil), s.guestPerms...)}
	token := s.issueToken(claims)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, models.GuestGrant{
		Token:       token,
		Role:        claims.Role,
		RoleID:      claims.RoleID,
		Permissions: claims.Permissions,
	})
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EncryptedToken string `json:"encrypted_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	claims, ok := s.tokens[req.EncryptedToken]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, claims)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	acc, ok := s.accounts[req.Email]
	if !ok || acc.password != req.Password {
		s.mu.Unlock()
		http.Error(w, "invalid email or password", http.StatusForbidden)
		return
	}
	claims := &models.TokenClaims{
		ID:          acc.user.ID,
		Role:        acc.role,
		RoleID:      acc.user.RoleID,
		InstanceID:  acc.user.InstanceID,
		Permissions: append([]string(nil), acc.perms...),
	}
	token := s.issueToken(claims)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, models.LoginResult{
		Token:      token,
		ID:         acc.user.ID,
		Name:       acc.user.Name,
		Email:      acc.user.Email,
		RoleID:     acc.user.RoleID,
		InstanceID: acc.user.InstanceID,
	})
}

func (s *Server) summaries(filter func(*models.Content) bool) []models.ContentSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := []models.ContentSummary{}
	for id, c := range s.contents {
		if s.deleted[id] || !filter(c) {
			continue
		}
		list = append(list, models.ContentSummary{ID: c.ID, Title: c.Title, Status: c.Status})
	}
	return list
}

func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.summaries(func(c *models.Content) bool {
		return c.Status == models.StatusApproved
	}))
}

func (s *Server) handleNotRejected(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.summaries(func(c *models.Content) bool {
		return c.Status != models.StatusRejected
	}))
}

func (s *Server) handleDrafts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.summaries(func(c *models.Content) bool {
		return c.Status == models.StatusPending
	}))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, s.summaries(func(c *models.Content) bool {
		return strings.Contains(strings.ToLower(c.Title), q) ||
			strings.Contains(strings.ToLower(c.Tag), q)
	}))
}

func (s *Server) handleContentByID(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "id")
	s.mu.Lock()
	c, ok := s.contents[id]
	if !ok || s.deleted[id] {
		s.mu.Unlock()
		http.Error(w, "content not found", http.StatusNotFound)
		return
	}
	detail := models.ContentDetail{Content: *c, Subheadings: []models.Subheading{}}
	for _, sub := range s.subheadings {
		if sub.ContentID == id {
			detail.Subheadings = append(detail.Subheadings, *sub)
		}
	}
	if u, ok := s.users[c.AuthorID]; ok {
		detail.AuthorName = u.Name
	}
	for _, inst := range s.instances {
		if inst.ID == c.InstanceID {
			detail.InstanceName = inst.Name
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleCreateContent(w http.ResponseWriter, r *http.Request) {
	var c models.Content
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, "invalid input data", http.StatusBadRequest)
		return
	}
	if c.Title == "" || c.Tag == "" || c.AuthorID == 0 || c.InstanceID == 0 {
		http.Error(w, "missing required fields", http.StatusBadRequest)
		return
	}
	if c.Status == "" {
		// Contributors go through review; everyone else publishes directly.
		if c.AuthorRoleID == 3 {
			c.Status = models.StatusPending
		} else {
			c.Status = models.StatusApproved
		}
	}
	now := time.Now().Format("2006-01-02 15:04:05")
	c.CreatedAt = now
	c.UpdatedAt = now

	s.mu.Lock()
	s.nextID++
	c.ID = s.nextID
	s.contents[c.ID] = &c
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Content created successfully",
		"content_id": c.ID,
	})
}

func (s *Server) handleEditContent(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "id")
	var in models.Content
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid input data", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	c, ok := s.contents[id]
	if ok {
		c.Title = in.Title
		c.Description = in.Description
		c.Tag = in.Tag
		c.Accessibility = in.Accessibility
		c.UpdatedAt = time.Now().Format("2006-01-02 15:04:05")
	}
	s.mu.Unlock()
	if !ok {
		http.Error(w, "content not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Content updated successfully"})
}

func (s *Server) handleDeleteContent(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "id")
	s.mu.Lock()
	s.deleted[id] = true
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Content soft deleted successfully"})
}

func (s *Server) setStatus(w http.ResponseWriter, id int64, status, reason string) {
	s.mu.Lock()
	c, ok := s.contents[id]
	if ok {
		c.Status = status
		c.RejectionReason = reason
	}
	s.mu.Unlock()
	if !ok {
		http.Error(w, "content not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	s.setStatus(w, urlID(r, "id"), models.StatusApproved, "")
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	s.setStatus(w, urlID(r, "id"), models.StatusRejected, req.Reason)
}

func (s *Server) handleResubmit(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "id")
	var in models.Content
	_ = json.NewDecoder(r.Body).Decode(&in)
	s.mu.Lock()
	if c, ok := s.contents[id]; ok {
		if in.Title != "" {
			c.Title = in.Title
		}
		c.Description = in.Description
		c.Status = models.StatusPending
		c.RejectionReason = ""
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Content resubmitted"})
}

func (s *Server) handleViewCount(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "id")
	s.mu.Lock()
	count := 0
	if c, ok := s.contents[id]; ok {
		count = c.ViewCount
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]int{"view_count": count})
}

func (s *Server) handleIncrementViewCount(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "id")
	s.mu.Lock()
	if c, ok := s.contents[id]; ok {
		c.ViewCount++
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}

func (s *Server) handleUserContents(w http.ResponseWriter, r *http.Request) {
	userID := urlID(r, "id")
	s.mu.Lock()
	list := []models.Content{}
	for id, c := range s.contents {
		if !s.deleted[id] && c.AuthorID == userID {
			list = append(list, *c)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleLatestEditorName(w http.ResponseWriter, r *http.Request) {
	contentID := urlID(r, "id")
	s.mu.Lock()
	name := ""
	for i := len(s.histories) - 1; i >= 0; i-- {
		if s.histories[i].ContentID == contentID {
			if u, ok := s.users[s.histories[i].EditorID]; ok {
				name = u.Name
			}
			break
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"editor_name": name})
}

func (s *Server) handleAddSubheading(w http.ResponseWriter, r *http.Request) {
	contentID := urlID(r, "id")
	var sub models.Subheading
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		http.Error(w, "invalid input data", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.nextID++
	sub.ID = s.nextID
	sub.ContentID = contentID
	s.subheadings[sub.ID] = &sub
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"message": "Subheading added", "id": sub.ID})
}

func (s *Server) handleDeleteSubheading(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "id")
	s.mu.Lock()
	delete(s.subheadings, id)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Subheading deleted"})
}

func (s *Server) handleInstances(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	list := append([]models.Instance(nil), s.instances...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	list := []models.User{}
	for _, u := range s.users {
		list = append(list, *u)
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleUserByID(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "id")
	s.mu.Lock()
	u, ok := s.users[id]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var u models.User
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil || u.Email == "" {
		http.Error(w, "invalid input data", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.nextID++
	u.ID = s.nextID
	s.users[u.ID] = &u
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"message": "User created", "id": u.ID})
}

func (s *Server) handleEditUser(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "id")
	var in models.User
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid input data", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	u, ok := s.users[id]
	if ok {
		u.Name = in.Name
		u.Email = in.Email
		u.RoleID = in.RoleID
		u.InstanceID = in.InstanceID
	}
	s.mu.Unlock()
	if !ok {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User updated"})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "id")
	s.mu.Lock()
	delete(s.users, id)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
}

func (s *Server) handleRoles(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	list := append([]models.Role(nil), s.roles...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handlePermissions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	list := append([]models.Permission(nil), s.perms...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleRolePermissions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	list := []models.RolePermission{}
	for roleID, set := range s.rolePerms {
		for permID := range set {
			list = append(list, models.RolePermission{RoleID: roleID, PermissionID: permID})
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handlePermissionsOfRole(w http.ResponseWriter, r *http.Request) {
	roleID := int(urlID(r, "id"))
	s.mu.Lock()
	list := []models.Permission{}
	for _, p := range s.perms {
		if s.rolePerms[roleID][p.ID] {
			list = append(list, p)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAddRolePermission(w http.ResponseWriter, r *http.Request) {
	roleID := int(urlID(r, "id"))
	permID := int(urlID(r, "pid"))
	s.mu.Lock()
	if s.rolePerms[roleID] == nil {
		s.rolePerms[roleID] = make(map[int]bool)
	}
	s.rolePerms[roleID][permID] = true
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleRemoveRolePermission(w http.ResponseWriter, r *http.Request) {
	roleID := int(urlID(r, "id"))
	permID := int(urlID(r, "pid"))
	s.mu.Lock()
	delete(s.rolePerms[roleID], permID)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleAddHistory(w http.ResponseWriter, r *http.Request) {
	var h models.History
	if err := json.NewDecoder(r.Body).Decode(&h); err != nil {
		http.Error(w, "invalid input data", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.histories = append(s.histories, h)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "History recorded"})
}

func (s *Server) handleHistoryByUser(w http.ResponseWriter, r *http.Request) {
	userID := urlID(r, "id")
	s.mu.Lock()
	list := []models.History{}
	for _, h := range s.histories {
		if h.EditorID == userID {
			list = append(list, h)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, list)
}
