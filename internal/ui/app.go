package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/fragmede/ojterm/internal/api"
	"github.com/fragmede/ojterm/internal/auth"
	"github.com/fragmede/ojterm/internal/cache"
	"github.com/fragmede/ojterm/internal/config"
	"github.com/fragmede/ojterm/internal/monitor"
	"github.com/fragmede/ojterm/internal/render"
	"github.com/fragmede/ojterm/internal/ui/login"
	"github.com/fragmede/ojterm/internal/ui/messages"
	"github.com/fragmede/ojterm/internal/ui/notifications"
	"github.com/fragmede/ojterm/internal/ui/problemform"
	"github.com/fragmede/ojterm/internal/ui/problemlist"
	"github.com/fragmede/ojterm/internal/ui/problemview"
	"github.com/fragmede/ojterm/internal/ui/signup"
	"github.com/fragmede/ojterm/internal/ui/stats"
	"github.com/fragmede/ojterm/internal/ui/statusbar"
	"github.com/fragmede/ojterm/internal/ui/submissionlist"
	"github.com/fragmede/ojterm/internal/ui/submissionview"
	"github.com/fragmede/ojterm/internal/ui/submit"
	"github.com/fragmede/ojterm/internal/ui/theme"
	"github.com/fragmede/ojterm/internal/ui/userprofile"
)

// App is the root Bubble Tea model.
type App struct {
	// View state
	activeView    ViewType
	previousViews []ViewType
	pending       tea.Msg // navigation deferred until restore or login completes
	showHelp      bool

	// Child models
	problemList   problemlist.Model
	problemView   problemview.Model
	submissions   submissionlist.Model
	submission    submissionview.Model
	loginForm     login.Model
	signupForm    signup.Model
	submitForm    submit.Model
	stats         stats.Model
	profile       userprofile.Model
	notifications notifications.Model
	problemForm   problemform.Model
	statusBar     statusbar.Model
	help          help.Model

	// Shared state
	cfg     config.Config
	client  *api.Client
	cache   *cache.DB
	session *auth.Session
	monitor *monitor.Monitor
	state   auth.State

	// Dimensions
	width  int
	height int

	// Receives verdicts from the background monitor.
	sender monitor.Sender
}

// NewApp creates the root application model.
func NewApp(cfg config.Config, client *api.Client, db *cache.DB, session *auth.Session, mon *monitor.Monitor) *App {
	return &App{
		activeView:  ViewProblemList,
		problemList: problemlist.New(client, cfg.PageSize),
		statusBar:   statusbar.New(),
		help:        help.New(),
		cfg:         cfg,
		client:      client,
		cache:       db,
		session:     session,
		monitor:     mon,
		state:       session.State(),
	}
}

// SetProgram stores where the background monitor delivers verdicts.
func (a *App) SetProgram(s monitor.Sender) {
	a.sender = s
}

// Init starts the application.
func (a *App) Init() tea.Cmd {
	a.statusBar.SetSession(a.state)
	return tea.Batch(a.problemList.Init(), a.restoreSession())
}

func (a *App) restoreSession() tea.Cmd {
	session := a.session
	return func() tea.Msg {
		return messages.SessionRestoredMsg{State: session.Restore(context.Background())}
	}
}

// ActiveView returns the view currently on screen.
func (a *App) ActiveView() ViewType {
	return a.activeView
}

// textEntry reports whether the active view consumes printable keys.
func (a *App) textEntry() bool {
	switch a.activeView {
	case ViewLogin, ViewSignup, ViewSubmit, ViewProblemForm:
		return true
	case ViewProblemList:
		return a.problemList.Filtering()
	}
	return false
}

// Update handles all messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.problemList.SetSize(msg.Width, a.contentHeight())
		a.statusBar.SetSize(msg.Width)
		a.resizeActive()
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, a.quit()
		}
		if key.Matches(msg, Keys.Back) {
			if a.showHelp {
				a.showHelp = false
				return a, nil
			}
			if a.activeView == ViewProblemList && a.problemList.Filtering() {
				break
			}
			return a, a.leave()
		}
		if a.textEntry() {
			break
		}
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}
		switch {
		case key.Matches(msg, Keys.Quit):
			if a.activeView == ViewProblemList {
				return a, a.quit()
			}
			return a, a.leave()
		case key.Matches(msg, Keys.Help):
			a.showHelp = true
			return a, nil
		case key.Matches(msg, Keys.Problems):
			a.resetTo(ViewProblemList)
			return a, nil
		case key.Matches(msg, Keys.Submissions):
			a.resetTo(ViewProblemList)
			return a, a.navigate(messages.OpenSubmissionsMsg{Title: "Submissions"})
		case key.Matches(msg, Keys.Login):
			return a, a.navigate(messages.OpenLoginMsg{})
		case key.Matches(msg, Keys.Signup):
			return a, a.navigate(messages.OpenSignupMsg{})
		case key.Matches(msg, Keys.Notify):
			return a, a.navigate(messages.OpenNotifyMsg{})
		case key.Matches(msg, Keys.Profile):
			return a, a.navigate(messages.OpenProfileMsg{})
		case key.Matches(msg, Keys.Stats):
			return a, a.navigate(messages.OpenStatsMsg{})
		case key.Matches(msg, Keys.Logout):
			if a.state.IsAuthenticated() {
				return a, a.logout()
			}
			return a, nil
		}

	// View transitions.
	case messages.OpenProblemListMsg, messages.OpenProblemMsg, messages.OpenSubmitMsg,
		messages.OpenSubmissionsMsg, messages.OpenSubmissionMsg, messages.OpenProblemFormMsg,
		messages.OpenLoginMsg, messages.OpenSignupMsg, messages.OpenStatsMsg,
		messages.OpenProfileMsg, messages.OpenNotifyMsg:
		return a, a.navigate(msg)

	case messages.GoBackMsg:
		return a, a.leave()

	case messages.LogoutMsg:
		return a, a.logout()

	case messages.SessionRestoredMsg:
		a.setState(msg.State)
		a.startMonitor()
		if a.activeView == ViewLoading {
			a.goBack()
		}
		return a, a.replayPending()

	case messages.AuthResultMsg:
		if msg.Err == nil {
			a.setState(msg.State)
			a.startMonitor()
			if msg.Signup {
				a.statusBar.SetStatus("Welcome, "+msg.State.User().DisplayName(), false)
			} else {
				a.statusBar.SetStatus("Signed in as "+msg.State.User().DisplayName(), false)
			}
			for a.activeView == ViewLogin || a.activeView == ViewSignup {
				a.goBack()
			}
			return a, a.replayPending()
		}
		// Let the form show the error.

	case messages.SubmitResultMsg:
		if msg.Err == nil && msg.Submission != nil {
			a.submitForm, _ = a.submitForm.Update(msg)
			if err := a.monitor.Watch(msg.Submission); err != nil {
				log.Warn().Err(err).Msg("watching submission")
			}
			a.statusBar.SetStatus("Submitted, waiting for verdict", false)
			if a.activeView == ViewSubmit {
				a.goBack()
			}
			return a, a.navigate(messages.OpenSubmissionMsg{ID: msg.Submission.ID})
		}

	case messages.ProblemSavedMsg:
		if msg.Err == nil && msg.Problem != nil {
			a.statusBar.SetStatus("Saved "+msg.Problem.Code, false)
			if a.activeView == ViewProblemForm {
				a.goBack()
			}
			a.problemList, _ = a.problemList.Update(msg)
		}

	case messages.ProblemDeletedMsg:
		if msg.Err != nil {
			a.statusBar.SetStatus("Delete failed: "+msg.Err.Error(), true)
		} else {
			a.statusBar.SetStatus("Problem deleted", false)
		}

	case messages.VerdictMsg:
		a.statusBar.SetUnread(msg.Unread)
		if s := msg.Submission; s != nil {
			a.statusBar.SetStatus(s.Problem.Code+": "+s.Verdict.Text()+" ("+render.Duration(s.TimeUsedMs)+")",
				s.Verdict != api.VerdictAccepted)
		}

	case messages.UnreadChangedMsg:
		a.statusBar.SetUnread(msg.Unread)

	case messages.StatusMsg:
		a.statusBar.SetStatus(msg.Text, msg.IsError)
	}

	// Route to active view.
	var cmd tea.Cmd
	switch a.activeView {
	case ViewProblemList:
		a.problemList, cmd = a.problemList.Update(msg)
	case ViewProblem:
		a.problemView, cmd = a.problemView.Update(msg)
	case ViewSubmissions:
		a.submissions, cmd = a.submissions.Update(msg)
	case ViewSubmission:
		a.submission, cmd = a.submission.Update(msg)
	case ViewLogin:
		a.loginForm, cmd = a.loginForm.Update(msg)
	case ViewSignup:
		a.signupForm, cmd = a.signupForm.Update(msg)
	case ViewSubmit:
		a.submitForm, cmd = a.submitForm.Update(msg)
	case ViewStats:
		a.stats, cmd = a.stats.Update(msg)
	case ViewProfile:
		a.profile, cmd = a.profile.Update(msg)
	case ViewNotifications:
		a.notifications, cmd = a.notifications.Update(msg)
	case ViewProblemForm:
		a.problemForm, cmd = a.problemForm.Update(msg)
	}
	cmds = append(cmds, cmd)

	a.statusBar, cmd = a.statusBar.Update(msg)
	cmds = append(cmds, cmd)
	a.statusBar.SetActiveTab(a.tab())

	return a, tea.Batch(cmds...)
}

// navigate opens the view requested by msg after consulting the route guard.
func (a *App) navigate(msg tea.Msg) tea.Cmd {
	target := viewFor(msg)
	resolved, outcome := Resolve(target, a.session.State())
	log.Debug().Stringer("view", target).Stringer("resolved", resolved).Int("outcome", int(outcome)).Msg("navigate")

	switch outcome {
	case Wait:
		a.pending = msg
		if a.activeView != ViewLoading {
			a.pushView(ViewLoading)
		}
		return nil
	case NeedLogin:
		a.pending = msg
		a.statusBar.SetStatus("Sign in to continue", false)
		return a.open(messages.OpenLoginMsg{})
	case AlreadyAuthenticated:
		a.resetTo(ViewProblemList)
		a.statusBar.SetStatus("Already signed in", false)
		return nil
	case Forbidden:
		a.resetTo(ViewProblemList)
		a.statusBar.SetStatus("Admin privileges required", true)
		return nil
	}
	return a.open(msg)
}

func (a *App) replayPending() tea.Cmd {
	msg := a.pending
	a.pending = nil
	if msg == nil {
		return nil
	}
	return a.navigate(msg)
}

func viewFor(msg tea.Msg) ViewType {
	switch msg.(type) {
	case messages.OpenProblemMsg:
		return ViewProblem
	case messages.OpenSubmitMsg:
		return ViewSubmit
	case messages.OpenSubmissionsMsg:
		return ViewSubmissions
	case messages.OpenSubmissionMsg:
		return ViewSubmission
	case messages.OpenProblemFormMsg:
		return ViewProblemForm
	case messages.OpenLoginMsg:
		return ViewLogin
	case messages.OpenSignupMsg:
		return ViewSignup
	case messages.OpenStatsMsg:
		return ViewStats
	case messages.OpenProfileMsg:
		return ViewProfile
	case messages.OpenNotifyMsg:
		return ViewNotifications
	}
	return ViewProblemList
}

// open builds and shows the view for an already authorized navigation.
func (a *App) open(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	target := viewFor(msg)

	switch msg := msg.(type) {
	case messages.OpenProblemListMsg:
		a.resetTo(ViewProblemList)
		return nil
	case messages.OpenProblemMsg:
		a.problemView = problemview.New(msg.ID, a.client)
		a.problemView.SetAdmin(a.state.IsAdmin())
		cmd = a.problemView.Init()
	case messages.OpenSubmitMsg:
		if msg.Problem == nil {
			return nil
		}
		a.submitForm = submit.New(*msg.Problem, a.client, a.cache)
	case messages.OpenSubmissionsMsg:
		a.submissions = submissionlist.New(msg.Query, msg.Title, a.client, a.cfg.PageSize)
		if u := a.state.User(); u != nil {
			a.submissions.SetUserID(u.ID)
		}
		cmd = a.submissions.Init()
	case messages.OpenSubmissionMsg:
		a.submission = submissionview.New(msg.ID, a.client)
		cmd = a.submission.Init()
	case messages.OpenProblemFormMsg:
		a.problemForm = problemform.New(msg.Problem, a.client)
	case messages.OpenLoginMsg:
		a.loginForm = login.New(a.session)
	case messages.OpenSignupMsg:
		a.signupForm = signup.New(a.session, a.cfg.IsReservedEmail)
	case messages.OpenStatsMsg:
		id, handle := msg.UserID, msg.Handle
		if id == "" {
			u := a.state.User()
			if u == nil {
				return nil
			}
			id, handle = u.ID, u.DisplayName()
		}
		a.stats = stats.New(id, handle, a.client)
		cmd = a.stats.Init()
	case messages.OpenProfileMsg:
		a.profile = userprofile.New(a.session, a.cache)
	case messages.OpenNotifyMsg:
		u := a.state.User()
		if u == nil {
			return nil
		}
		a.notifications = notifications.New(a.cache, u.ID)
		a.notifications.Load()
	}

	// Login and signup replace each other rather than stacking.
	guestForm := func(v ViewType) bool { return v == ViewLogin || v == ViewSignup }
	if guestForm(a.activeView) && guestForm(target) {
		a.activeView = target
	} else {
		a.pushView(target)
	}
	a.resizeActive()
	return cmd
}

func (a *App) setState(st auth.State) {
	a.state = st
	a.statusBar.SetSession(st)
	a.problemList.SetAdmin(st.IsAdmin())
	if u := st.User(); u != nil {
		a.statusBar.SetUnread(a.cache.UnreadNotificationCount(u.ID))
	} else {
		a.statusBar.SetUnread(0)
	}
}

func (a *App) startMonitor() {
	u := a.state.User()
	if u == nil || a.sender == nil {
		return
	}
	a.monitor.Start(a.sender, u.ID)
}

func (a *App) logout() tea.Cmd {
	a.monitor.Stop()
	a.session.Logout(context.Background())
	a.pending = nil
	a.setState(a.session.State())
	a.resetTo(ViewProblemList)
	a.statusBar.SetStatus("Signed out", false)
	return nil
}

func (a *App) quit() tea.Cmd {
	if a.activeView == ViewSubmit {
		a.submitForm.SaveDraft()
	}
	a.monitor.Stop()
	return tea.Quit
}

func (a *App) tab() string {
	switch a.activeView {
	case ViewProblemList, ViewProblem, ViewSubmit, ViewProblemForm:
		return statusbar.Tabs[0]
	case ViewSubmissions, ViewSubmission:
		return statusbar.Tabs[1]
	}
	return ""
}

func (a *App) contentHeight() int {
	return a.height - 1 // Reserve 1 line for status bar.
}

func (a *App) resizeActive() {
	w, h := a.width, a.contentHeight()
	switch a.activeView {
	case ViewProblem:
		a.problemView.SetSize(w, h)
	case ViewSubmissions:
		a.submissions.SetSize(w, h)
	case ViewSubmission:
		a.submission.SetSize(w, h)
	case ViewLogin:
		a.loginForm.SetSize(w, h)
	case ViewSignup:
		a.signupForm.SetSize(w, h)
	case ViewSubmit:
		a.submitForm.SetSize(w, h)
	case ViewStats:
		a.stats.SetSize(w, h)
	case ViewProfile:
		a.profile.SetSize(w, h)
	case ViewNotifications:
		a.notifications.SetSize(w, h)
	case ViewProblemForm:
		a.problemForm.SetSize(w, h)
	}
}

// View renders the application.
func (a *App) View() string {
	var content string
	switch {
	case a.showHelp:
		a.help.ShowAll = true
		content = theme.TitleStyle.Render("Keys") + "\n" + a.help.View(Keys)
	default:
		content = a.viewContent()
	}
	return lipgloss.JoinVertical(lipgloss.Left, content, a.statusBar.View())
}

func (a *App) viewContent() string {
	switch a.activeView {
	case ViewProblemList:
		return a.problemList.View()
	case ViewProblem:
		return a.problemView.View()
	case ViewSubmissions:
		return a.submissions.View()
	case ViewSubmission:
		return a.submission.View()
	case ViewLogin:
		return a.loginForm.View()
	case ViewSignup:
		return a.signupForm.View()
	case ViewSubmit:
		return a.submitForm.View()
	case ViewStats:
		return a.stats.View()
	case ViewProfile:
		return a.profile.View()
	case ViewNotifications:
		return a.notifications.View()
	case ViewProblemForm:
		return a.problemForm.View()
	case ViewLoading:
		return lipgloss.Place(a.width, a.contentHeight(), lipgloss.Center, lipgloss.Center, "Restoring session...")
	}
	return ""
}

func (a *App) pushView(v ViewType) {
	a.previousViews = append(a.previousViews, a.activeView)
	a.activeView = v
}

// leave is a user-initiated back. Leaving the loading screen or a login
// form abandons the navigation that was waiting on it.
func (a *App) leave() tea.Cmd {
	switch a.activeView {
	case ViewLoading, ViewLogin, ViewSignup:
		a.pending = nil
	}
	return a.goBack()
}

func (a *App) goBack() tea.Cmd {
	if a.activeView == ViewSubmit {
		a.submitForm.SaveDraft()
	}
	if len(a.previousViews) > 0 {
		a.activeView = a.previousViews[len(a.previousViews)-1]
		a.previousViews = a.previousViews[:len(a.previousViews)-1]
		a.resizeActive()
	}
	return nil
}

func (a *App) resetTo(v ViewType) {
	if a.activeView == ViewSubmit {
		a.submitForm.SaveDraft()
	}
	a.activeView = v
	a.previousViews = nil
}
