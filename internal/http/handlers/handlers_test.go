package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vanish-chat/vanish-backend/internal/domain"
	"github.com/vanish-chat/vanish-backend/internal/repo"
	"github.com/vanish-chat/vanish-backend/internal/services"
	"github.com/vanish-chat/vanish-backend/internal/state"
)

// testStack wires the full application behind a gin router, with a stub auth
// middleware that trusts the X-User-ID / X-User-Name headers.
type testStack struct {
	router   *gin.Engine
	engine   *state.Engine
	accounts *services.AccountService
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	eng := state.NewEngine(domain.MessageTTL)
	eng.Groups.Put(&domain.Group{ID: services.DefaultGroupID, Name: "General"})

	accounts := services.NewAccountService(db, eng, "test-secret", time.Hour)
	friends := services.NewFriendService(db, eng.Friends)
	messages := services.NewMessageService(eng.Messages, eng.Groups, nil)

	h := New(accounts, friends, messages, nil, nil)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if uid := c.GetHeader("X-User-ID"); uid != "" {
			c.Set("userID", uid)
		}
		if un := c.GetHeader("X-User-Name"); un != "" {
			c.Set("userName", un)
		}
		c.Next()
	})

	r.POST("/auth/signup", h.Signup)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/forgot", h.Forgot)
	r.POST("/auth/reset", h.Reset)
	r.DELETE("/auth/delete", h.DeleteAccount)
	r.POST("/friend-requests", h.PostFriendRequest)
	r.GET("/friend-requests", h.ListFriendRequests)
	r.POST("/friend-requests/:id/accept", h.AcceptFriendRequest)
	r.POST("/friend-requests/:id/decline", h.DeclineFriendRequest)
	r.GET("/friends", h.ListFriends)
	r.GET("/chats/:friendId/messages", h.ListDirectMessages)
	r.POST("/chats/:friendId/messages", h.PostDirectMessage)
	r.GET("/groups", h.ListGroups)
	r.GET("/groups/:groupId/messages", h.ListGroupMessages)
	r.POST("/groups/:groupId/messages", h.PostGroupMessage)
	r.POST("/messages/:id/react", h.ReactToMessage)
	r.POST("/messages/:id/read", h.MarkMessageRead)
	r.DELETE("/messages/wipe", h.WipeMessages)

	return &testStack{router: r, engine: eng, accounts: accounts}
}

// do performs a JSON request as the given identity and decodes the response
// into out (when non-nil).
func (s *testStack) do(t *testing.T, method, path, asUser, asName string, body, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if asUser != "" {
		req.Header.Set("X-User-ID", asUser)
	}
	if asName != "" {
		req.Header.Set("X-User-Name", asName)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	if out != nil && w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s %s response %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code
}

// signup registers a user and returns the session.
func (s *testStack) signup(t *testing.T, username, email string) *services.Session {
	t.Helper()
	var sess services.Session
	code := s.do(t, http.MethodPost, "/auth/signup", "", "", SignupRequest{
		Username: username, Email: email, Password: "s3cret",
	}, &sess)
	if code != http.StatusCreated {
		t.Fatalf("signup %s: status %d", username, code)
	}
	return &sess
}

func TestSignupLoginFlow(t *testing.T) {
	s := newTestStack(t)

	sess := s.signup(t, "Alice", "alice@example.com")
	if sess.Token == "" || sess.User.FriendCode == "" {
		t.Fatalf("incomplete session: %+v", sess)
	}

	// Duplicate username differs only by case.
	var er ErrorResponse
	code := s.do(t, http.MethodPost, "/auth/signup", "", "", SignupRequest{
		Username: "ALICE", Email: "other@example.com", Password: "x",
	}, &er)
	if code != http.StatusConflict || er.Code != ErrCodeUserExists {
		t.Fatalf("duplicate signup: status %d code %q", code, er.Code)
	}

	// Login by email, then by username.
	for _, ident := range []string{"alice@example.com", "Alice"} {
		var got services.Session
		if code := s.do(t, http.MethodPost, "/auth/login", "", "", LoginRequest{
			Identifier: ident, Password: "s3cret",
		}, &got); code != http.StatusOK {
			t.Fatalf("login by %q: status %d", ident, code)
		}
	}

	// Wrong password.
	code = s.do(t, http.MethodPost, "/auth/login", "", "", LoginRequest{
		Identifier: "Alice", Password: "wrong",
	}, &er)
	if code != http.StatusUnauthorized || er.Code != ErrCodeInvalidCredentials {
		t.Fatalf("bad login: status %d code %q", code, er.Code)
	}
}

func TestForgotResetFlow(t *testing.T) {
	s := newTestStack(t)
	s.signup(t, "Alice", "alice@example.com")

	var fr ForgotResponse
	if code := s.do(t, http.MethodPost, "/auth/forgot", "", "", ForgotRequest{Identifier: "Alice"}, &fr); code != http.StatusOK {
		t.Fatalf("forgot: status %d", code)
	}
	if fr.ResetToken == "" {
		t.Fatal("expected a reset token")
	}

	if code := s.do(t, http.MethodPost, "/auth/reset", "", "", ResetRequest{Token: fr.ResetToken, Password: "newpass"}, nil); code != http.StatusNoContent {
		t.Fatalf("reset: status %d", code)
	}

	// The token is single use.
	var er ErrorResponse
	code := s.do(t, http.MethodPost, "/auth/reset", "", "", ResetRequest{Token: fr.ResetToken, Password: "again"}, &er)
	if code != http.StatusBadRequest || er.Code != ErrCodeInvalidResetToken {
		t.Fatalf("reset replay: status %d code %q", code, er.Code)
	}

	// Old password no longer works, new one does.
	if code := s.do(t, http.MethodPost, "/auth/login", "", "", LoginRequest{Identifier: "Alice", Password: "s3cret"}, nil); code != http.StatusUnauthorized {
		t.Fatalf("old password accepted: status %d", code)
	}
	if code := s.do(t, http.MethodPost, "/auth/login", "", "", LoginRequest{Identifier: "Alice", Password: "newpass"}, nil); code != http.StatusOK {
		t.Fatalf("new password rejected: status %d", code)
	}
}

func TestFriendRequestFlow(t *testing.T) {
	s := newTestStack(t)
	alice := s.signup(t, "Alice", "alice@example.com")
	bob := s.signup(t, "Bob", "bob@example.com")

	// Alice opens a request by Bob's friend code.
	var resp FriendRequestResponse
	code := s.do(t, http.MethodPost, "/friend-requests", alice.User.ID, "Alice",
		SendFriendRequest{Identifier: bob.User.FriendCode}, &resp)
	if code != http.StatusCreated {
		t.Fatalf("send request: status %d", code)
	}
	reqID := resp.Request.ID

	// A second request in either direction is a distinguishable conflict.
	var er ErrorResponse
	code = s.do(t, http.MethodPost, "/friend-requests", bob.User.ID, "Bob",
		SendFriendRequest{Identifier: "Alice"}, &er)
	if code != http.StatusConflict || er.Code != ErrCodeRequestPending {
		t.Fatalf("duplicate request: status %d code %q", code, er.Code)
	}

	// Bob sees it incoming; Alice sees it outgoing.
	var in ListRequestsResponse
	s.do(t, http.MethodGet, "/friend-requests?type=incoming", bob.User.ID, "Bob", nil, &in)
	if len(in.Requests) != 1 || in.Requests[0].FromUser != "Alice" || in.Requests[0].ToUser != "You" {
		t.Fatalf("incoming view: %+v", in.Requests)
	}
	var out ListRequestsResponse
	s.do(t, http.MethodGet, "/friend-requests?type=outgoing", alice.User.ID, "Alice", nil, &out)
	if len(out.Requests) != 1 || out.Requests[0].FromUser != "You" || out.Requests[0].ToUser != "Bob" {
		t.Fatalf("outgoing view: %+v", out.Requests)
	}

	// Accept, then verify friendship and the already_friends conflict.
	if code := s.do(t, http.MethodPost, "/friend-requests/"+reqID+"/accept", bob.User.ID, "Bob", nil, &resp); code != http.StatusOK {
		t.Fatalf("accept: status %d", code)
	}
	var friends ListFriendsResponse
	s.do(t, http.MethodGet, "/friends", alice.User.ID, "Alice", nil, &friends)
	if len(friends.Friends) != 1 || friends.Friends[0].Username != "Bob" {
		t.Fatalf("friends view: %+v", friends.Friends)
	}
	code = s.do(t, http.MethodPost, "/friend-requests", alice.User.ID, "Alice",
		SendFriendRequest{Identifier: "Bob"}, &er)
	if code != http.StatusConflict || er.Code != ErrCodeAlreadyFriends {
		t.Fatalf("request between friends: status %d code %q", code, er.Code)
	}

	// Declining an accepted request is a conflict; repeating accept is not.
	code = s.do(t, http.MethodPost, "/friend-requests/"+reqID+"/decline", bob.User.ID, "Bob", nil, &er)
	if code != http.StatusConflict || er.Code != ErrCodeRequestClosed {
		t.Fatalf("decline after accept: status %d code %q", code, er.Code)
	}
	if code := s.do(t, http.MethodPost, "/friend-requests/"+reqID+"/accept", bob.User.ID, "Bob", nil, &resp); code != http.StatusOK {
		t.Fatalf("repeat accept: status %d", code)
	}

	// Unknown request id.
	code = s.do(t, http.MethodPost, "/friend-requests/nope/accept", bob.User.ID, "Bob", nil, &er)
	if code != http.StatusNotFound {
		t.Fatalf("unknown request: status %d", code)
	}

	// Self request and unknown identifier.
	code = s.do(t, http.MethodPost, "/friend-requests", alice.User.ID, "Alice",
		SendFriendRequest{Identifier: alice.User.FriendCode}, &er)
	if code != http.StatusBadRequest {
		t.Fatalf("self request: status %d", code)
	}
	code = s.do(t, http.MethodPost, "/friend-requests", alice.User.ID, "Alice",
		SendFriendRequest{Identifier: "nobody"}, &er)
	if code != http.StatusNotFound {
		t.Fatalf("unknown identifier: status %d", code)
	}
}

func TestDirectMessageFlow(t *testing.T) {
	s := newTestStack(t)
	alice := s.signup(t, "Alice", "alice@example.com")
	bob := s.signup(t, "Bob", "bob@example.com")

	var posted PostMessageResponse
	code := s.do(t, http.MethodPost, "/chats/"+bob.User.ID+"/messages", alice.User.ID, "Alice",
		PostMessageRequest{Body: "hey"}, &posted)
	if code != http.StatusCreated {
		t.Fatalf("post: status %d", code)
	}
	if posted.Message.Sender != alice.User.ID || posted.Message.Body != "hey" {
		t.Fatalf("posted message: %+v", posted.Message)
	}

	// Both participants list the same room.
	var listed ListMessagesResponse
	s.do(t, http.MethodGet, "/chats/"+alice.User.ID+"/messages", bob.User.ID, "Bob", nil, &listed)
	if len(listed.Messages) != 1 || listed.Messages[0].ID != posted.Message.ID {
		t.Fatalf("peer listing: %+v", listed.Messages)
	}

	// React, then read.
	var reacted MessageResponse
	code = s.do(t, http.MethodPost, "/messages/"+posted.Message.ID+"/react", bob.User.ID, "Bob",
		ReactRequest{Emoji: "👍"}, &reacted)
	if code != http.StatusOK {
		t.Fatalf("react: status %d", code)
	}
	if len(reacted.Message.Reactions) != 1 || reacted.Message.Reactions[0].UserName != "Bob" {
		t.Fatalf("reactions: %+v", reacted.Message.Reactions)
	}

	var read MessageResponse
	code = s.do(t, http.MethodPost, "/messages/"+posted.Message.ID+"/read", bob.User.ID, "Bob", nil, &read)
	if code != http.StatusOK {
		t.Fatalf("read: status %d", code)
	}
	if len(read.Message.ReadBy) != 1 || read.Message.ReadBy[0] != bob.User.ID {
		t.Fatalf("readBy: %+v", read.Message.ReadBy)
	}

	// Unknown message id.
	var er ErrorResponse
	code = s.do(t, http.MethodPost, "/messages/0/react", bob.User.ID, "Bob", ReactRequest{Emoji: "x"}, &er)
	if code != http.StatusNotFound || er.Code != ErrCodeNotFound {
		t.Fatalf("react on missing message: status %d code %q", code, er.Code)
	}

	// Blank body is rejected at the edge.
	code = s.do(t, http.MethodPost, "/chats/"+bob.User.ID+"/messages", alice.User.ID, "Alice",
		PostMessageRequest{Body: ""}, &er)
	if code != http.StatusBadRequest {
		t.Fatalf("blank body: status %d", code)
	}

	// Wipe removes the room for both sides.
	var wiped WipeResponse
	code = s.do(t, http.MethodDelete, "/messages/wipe", alice.User.ID, "Alice", nil, &wiped)
	if code != http.StatusOK || wiped.RoomsRemoved != 1 {
		t.Fatalf("wipe: status %d removed %d", code, wiped.RoomsRemoved)
	}
	s.do(t, http.MethodGet, "/chats/"+alice.User.ID+"/messages", bob.User.ID, "Bob", nil, &listed)
	if len(listed.Messages) != 0 {
		t.Fatalf("room survived wipe: %+v", listed.Messages)
	}
}

func TestGroupMessageFlow(t *testing.T) {
	s := newTestStack(t)
	alice := s.signup(t, "Alice", "alice@example.com")

	// Signup joined Alice to the seeded group.
	var groups ListGroupsResponse
	s.do(t, http.MethodGet, "/groups", alice.User.ID, "Alice", nil, &groups)
	if len(groups.Groups) != 1 || groups.Groups[0].ID != services.DefaultGroupID {
		t.Fatalf("groups: %+v", groups.Groups)
	}

	var posted PostMessageResponse
	code := s.do(t, http.MethodPost, "/groups/"+services.DefaultGroupID+"/messages", alice.User.ID, "Alice",
		PostMessageRequest{Body: "hello all"}, &posted)
	if code != http.StatusCreated {
		t.Fatalf("group post: status %d", code)
	}

	var listed ListMessagesResponse
	s.do(t, http.MethodGet, "/groups/"+services.DefaultGroupID+"/messages", alice.User.ID, "Alice", nil, &listed)
	if len(listed.Messages) != 1 {
		t.Fatalf("group listing: %+v", listed.Messages)
	}

	// Unknown group.
	var er ErrorResponse
	code = s.do(t, http.MethodPost, "/groups/nope/messages", alice.User.ID, "Alice",
		PostMessageRequest{Body: "x"}, &er)
	if code != http.StatusNotFound {
		t.Fatalf("unknown group: status %d", code)
	}
}

func TestDeleteAccountCascades(t *testing.T) {
	s := newTestStack(t)
	alice := s.signup(t, "Alice", "alice@example.com")
	bob := s.signup(t, "Bob", "bob@example.com")

	// One request, one direct room.
	s.do(t, http.MethodPost, "/friend-requests", alice.User.ID, "Alice",
		SendFriendRequest{Identifier: "Bob"}, nil)
	s.do(t, http.MethodPost, "/chats/"+bob.User.ID+"/messages", alice.User.ID, "Alice",
		PostMessageRequest{Body: "bye"}, nil)

	var sum services.DissolutionSummary
	code := s.do(t, http.MethodDelete, "/auth/delete", alice.User.ID, "Alice", nil, &sum)
	if code != http.StatusOK {
		t.Fatalf("delete: status %d", code)
	}
	if sum.Requests != 1 || sum.Rooms != 1 || sum.Groups != 1 {
		t.Fatalf("cascade summary: %+v", sum)
	}

	// The account is gone for login and for a second dissolution.
	if code := s.do(t, http.MethodPost, "/auth/login", "", "", LoginRequest{Identifier: "Alice", Password: "s3cret"}, nil); code != http.StatusUnauthorized {
		t.Fatalf("login after delete: status %d", code)
	}
	var er ErrorResponse
	if code := s.do(t, http.MethodDelete, "/auth/delete", alice.User.ID, "Alice", nil, &er); code != http.StatusNotFound {
		t.Fatalf("double delete: status %d", code)
	}
}
