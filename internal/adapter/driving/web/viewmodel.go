package web

import (
	"net/url"
	"time"

	vm "github.com/ericfisherdev/spaceport/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/spaceport/internal/application"
	"github.com/ericfisherdev/spaceport/internal/domain/model"
)

// emptyCell is shown for absent optional values.
const emptyCell = "—"

// displayTimeLayout mirrors the en-US locale with a short zone name.
const displayTimeLayout = "1/2/2006, 3:04:05 PM MST"

// viewPath returns the base path of the endpoints of one mounted view.
func viewPath(viewID string) string {
	return "/app/views/" + url.PathEscape(viewID)
}

// toTableViewModel converts a controller snapshot into the table fragment data.
func toTableViewModel(viewID string, snap application.Snapshot, loc *time.Location) vm.TableViewModel {
	base := viewPath(viewID)

	table := vm.TableViewModel{
		ViewID:      viewID,
		BasePath:    base,
		Loading:     snap.State == model.ListIdle || snap.State == model.ListLoading,
		Errored:     snap.State == model.ListErrored,
		ShowActions: snap.ShowActions,
		ShowNewRow:  snap.ShowNewRow,
		CanAdd:      snap.CanAdd(),
		ToggleLabel: "Modify Table",
		Rows:        make([]vm.RowViewModel, 0, len(snap.Repos)),
		NewRow:      toFormViewModel(snap.NewRow.Draft, snap.NewRow.FieldErrors, snap.NewRow.Submitting),
	}
	if snap.ShowActions {
		table.ToggleLabel = "Hide modifying tools"
	}
	if snap.Err != nil {
		table.ErrorMessage = snap.Err.Error()
	}
	table.Empty = snap.State == model.ListReady && len(snap.Repos) == 0

	for _, repo := range snap.Repos {
		row := toRowViewModel(repo, loc)
		row.Path = base + "/repos/" + url.PathEscape(repo.ID)
		row.DeleteURL = row.Path + "?" + url.Values{confirmParam: {repo.ID}}.Encode()
		row.Deleting = snap.Deleting[repo.ID]
		row.ShowActions = snap.ShowActions
		if snap.Editing != nil && snap.Editing.ID == repo.ID {
			row.Editing = true
			row.Form = toFormViewModel(snap.Editing.Draft, snap.Editing.FieldErrors, snap.Editing.Submitting)
		}
		table.Rows = append(table.Rows, row)
	}

	return table
}

// toRowViewModel converts a record into its view-mode cells.
func toRowViewModel(repo model.Repository, loc *time.Location) vm.RowViewModel {
	return vm.RowViewModel{
		ID:              repo.ID,
		Name:            repo.Name,
		URL:             repo.URL,
		Branch:          repo.Branch,
		ComposeFolder:   orEmptyCell(repo.ComposeFolder),
		CredentialsName: orEmptyCell(repo.CredentialsName),
		IndexedAt:       formatTimestamp(repo.IndexedAt, loc),
		UpdatedAt:       formatTimestamp(repo.UpdatedAt, loc),
		DeletePrompt:    repo.DeletePrompt(),
	}
}

func toFormViewModel(d model.Draft, errs model.FieldErrors, submitting bool) vm.FormViewModel {
	return vm.FormViewModel{
		Name:            d.Name,
		URL:             d.URL,
		Branch:          d.Branch,
		ComposeFolder:   d.ComposeFolder,
		CredentialsName: d.CredentialsName,
		NameError:       errs.Name,
		URLError:        errs.URL,
		BranchError:     errs.Branch,
		Submitting:      submitting,
	}
}

// toProbeViewModel converts a probe result for the check panel.
func toProbeViewModel(name string, res model.ProbeResult) vm.ProbeViewModel {
	return vm.ProbeViewModel{
		Name:          name,
		BranchStatus:  string(res.Branch),
		BranchDetail:  res.BranchDetail,
		ComposeStatus: string(res.Compose),
		ComposeDetail: res.ComposeDetail,
		ComposePath:   res.ComposePath,
	}
}

// formatTimestamp renders t in loc, or the empty cell marker for nil.
func formatTimestamp(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return emptyCell
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(displayTimeLayout)
}

func orEmptyCell(s *string) string {
	if s == nil || *s == "" {
		return emptyCell
	}
	return *s
}
