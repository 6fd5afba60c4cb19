package main

import (
	"fmt"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/spf13/afero"
	"github.com/yuya-takeyama/atm-sync/pkg/planner"
	"github.com/yuya-takeyama/atm-sync/pkg/syncer"
)

// PlanResult represents the planned uploads before execution
type PlanResult struct {
	Files   []PlanFile  `json:"files"`
	Summary PlanSummary `json:"summary"`
}

type PlanFile struct {
	Action string `json:"action"` // "create", "update"
	Source string `json:"source"`
	Target string `json:"target"`
	Size   int64  `json:"size"`
	Reason string `json:"reason"`
}

type PlanSummary struct {
	Create    int   `json:"create"`
	Update    int   `json:"update"`
	Unchanged int   `json:"unchanged"`
	Excluded  int   `json:"excluded"`
	Bytes     int64 `json:"bytes"`
}

// SyncResult represents the actual execution results
type SyncResult struct {
	Files   []ResultFile  `json:"files"`
	Errors  []ErrorFile   `json:"errors"`
	Summary ResultSummary `json:"summary"`
}

type ResultFile struct {
	Action string `json:"action"` // "created", "updated"
	Source string `json:"source"`
	Target string `json:"target"`
}

type ErrorFile struct {
	Action string `json:"action"` // "create", "update"
	Source string `json:"source"`
	Target string `json:"target"`
	Error  string `json:"error"`
}

type ResultSummary struct {
	Created   int   `json:"created"`
	Updated   int   `json:"updated"`
	Unchanged int   `json:"unchanged"`
	Excluded  int   `json:"excluded"`
	Failed    int   `json:"failed"`
	Bytes     int64 `json:"bytes"`
}

func newPlanResult(plan *planner.Plan) PlanResult {
	result := PlanResult{
		Files: []PlanFile{},
		Summary: PlanSummary{
			Unchanged: plan.Unchanged,
			Excluded:  plan.Excluded,
			Bytes:     plan.TotalBytes(),
		},
	}

	for _, item := range plan.Items {
		action := getUploadActionName(item.Reason)
		if action == "create" {
			result.Summary.Create++
		} else {
			result.Summary.Update++
		}
		result.Files = append(result.Files, PlanFile{
			Action: action,
			Source: getAbsolutePath(item.LocalPath),
			Target: item.RemotePath,
			Size:   item.Size,
			Reason: item.Reason,
		})
	}

	return result
}

func newSyncResult(res *syncer.Result) SyncResult {
	result := SyncResult{
		Files:  []ResultFile{},
		Errors: []ErrorFile{},
		Summary: ResultSummary{
			Unchanged: res.Unchanged,
			Excluded:  res.Excluded,
			Bytes:     res.BytesUploaded,
		},
	}

	for _, item := range res.Uploaded {
		actionPast := "updated"
		if getUploadActionName(item.Reason) == "create" {
			actionPast = "created"
			result.Summary.Created++
		} else {
			result.Summary.Updated++
		}
		result.Files = append(result.Files, ResultFile{
			Action: actionPast,
			Source: getAbsolutePath(item.LocalPath),
			Target: item.RemotePath,
		})
	}

	for _, failed := range res.Failed {
		result.Errors = append(result.Errors, ErrorFile{
			Action: getUploadActionName(failed.Item.Reason),
			Source: getAbsolutePath(failed.Item.LocalPath),
			Target: failed.Item.RemotePath,
			Error:  failed.Error.Error(),
		})
		result.Summary.Failed++
	}

	return result
}

func writePlanResult(fsys afero.Fs, path string, plan *planner.Plan) error {
	return writeJSON(fsys, path, newPlanResult(plan))
}

func writeSyncResult(fsys afero.Fs, path string, result SyncResult) error {
	return writeJSON(fsys, path, result)
}

func writeJSON(fsys afero.Fs, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := afero.WriteFile(fsys, path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

func getUploadActionName(reason string) string {
	if reason == planner.ReasonNewFile {
		return "create"
	}
	return "update"
}

func getAbsolutePath(path string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path // fallback to original path
	}
	return absPath
}
