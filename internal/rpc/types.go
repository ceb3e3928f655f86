package rpc

import (
	"github.com/jcdickinson/apiperms/internal/apidoc"
	"github.com/jcdickinson/apiperms/internal/model"
	"github.com/jcdickinson/apiperms/internal/perms"
)

// PermissionInfo is the JSON form of a permission.
type PermissionInfo struct {
	Name    string `json:"name"`
	Level   string `json:"protection_level"`
	IsGroup bool   `json:"is_group"`
}

// ListPermissionsRequest filters permissions by level; empty means all.
type ListPermissionsRequest struct {
	Level string `json:"level,omitempty"`
}

type ListPermissionsResponse struct {
	Permissions []PermissionInfo `json:"permissions"`
}

type MethodInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type ClassInfo struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Methods     []MethodInfo `json:"methods"`
}

// PackageInfo is the JSON form of a package and everything beneath it.
type PackageInfo struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Classes     []ClassInfo `json:"classes"`
}

// FindMethodsRequest searches method names and descriptions.
type FindMethodsRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

type FindMethodsResponse struct {
	Results []MethodResult `json:"results"`
}

type MethodResult struct {
	Path        string `json:"path"`
	Package     string `json:"package"`
	Class       string `json:"class"`
	Method      string `json:"method"`
	Description string `json:"description,omitempty"`
}

// StatsResponse summarises a loaded model.
type StatsResponse struct {
	MethodsHash string         `json:"methods_hash"`
	PermsHash   string         `json:"perms_hash"`
	Packages    int            `json:"packages"`
	Classes     int            `json:"classes"`
	Methods     int            `json:"methods"`
	Permissions int            `json:"permissions"`
	Groups      int            `json:"groups"`
	ByLevel     map[string]int `json:"by_level"`
}

func NewPermissionInfo(p perms.Permission) PermissionInfo {
	return PermissionInfo{Name: p.Name, Level: string(p.Level), IsGroup: p.IsGroup}
}

func NewPermissionList(ps []perms.Permission) ListPermissionsResponse {
	out := ListPermissionsResponse{Permissions: make([]PermissionInfo, 0, len(ps))}
	for _, p := range ps {
		out.Permissions = append(out.Permissions, NewPermissionInfo(p))
	}
	return out
}

func NewPackageInfo(p *apidoc.Package) PackageInfo {
	info := PackageInfo{Name: p.Name, Description: p.Description, Classes: make([]ClassInfo, 0, len(p.Classes))}
	for _, c := range p.Classes {
		ci := ClassInfo{Name: c.Name, Description: c.Description, Methods: make([]MethodInfo, 0, len(c.Methods))}
		for _, m := range c.Methods {
			ci.Methods = append(ci.Methods, MethodInfo{Name: m.Name, Description: m.Description})
		}
		info.Classes = append(info.Classes, ci)
	}
	return info
}

func NewFindMethodsResponse(refs []apidoc.MethodRef) FindMethodsResponse {
	out := FindMethodsResponse{Results: make([]MethodResult, 0, len(refs))}
	for _, r := range refs {
		out.Results = append(out.Results, MethodResult{
			Path:        r.Path(),
			Package:     r.Package.Name,
			Class:       r.Class.Name,
			Method:      r.Method.Name,
			Description: r.Method.Description,
		})
	}
	return out
}

func NewStatsResponse(m *model.Model) StatsResponse {
	s := m.Stats()
	byLevel := make(map[string]int, len(perms.Levels))
	for _, l := range perms.Levels {
		byLevel[string(l)] = s.ByLevel[l]
	}
	return StatsResponse{
		MethodsHash: m.Source.MethodsHash,
		PermsHash:   m.Source.PermsHash,
		Packages:    s.Packages,
		Classes:     s.Classes,
		Methods:     s.Methods,
		Permissions: s.Permissions,
		Groups:      s.Groups,
		ByLevel:     byLevel,
	}
}
