package api

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/distanthq/distant/common/protocol"
	"github.com/distanthq/distant/common/rpc"
)

func (a *Api) registerFS(router *rpc.Router) {
	router.Handle(protocol.TypeReadFile, a.handleReadFile)
	router.Handle(protocol.TypeReadFileText, a.handleReadFileText)
	router.Handle(protocol.TypeWriteFile, a.handleWriteFile)
	router.Handle(protocol.TypeWriteFileText, a.handleWriteFileText)
	router.Handle(protocol.TypeReadDir, a.handleReadDir)
	router.Handle(protocol.TypeCreateDir, a.handleCreateDir)
	router.Handle(protocol.TypeRemove, a.handleRemove)
	router.Handle(protocol.TypeRename, a.handleRename)
	router.Handle(protocol.TypeCopy, a.handleCopy)
	router.Handle(protocol.TypeExists, a.handleExists)
	router.Handle(protocol.TypeMetadata, a.handleMetadata)
}

func (a *Api) handleReadFile(ctx *rpc.Context, req protocol.Message) error {
	r := req.(protocol.ReadFileRequest)
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return ctx.Reply(errResponse(err))
	}
	return ctx.Reply(protocol.BlobResponse{Data: data})
}

func (a *Api) handleReadFileText(ctx *rpc.Context, req protocol.Message) error {
	r := req.(protocol.ReadFileTextRequest)
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return ctx.Reply(errResponse(err))
	}
	return ctx.Reply(protocol.TextResponse{Data: string(data)})
}

func (a *Api) handleWriteFile(ctx *rpc.Context, req protocol.Message) error {
	r := req.(protocol.WriteFileRequest)
	if err := os.WriteFile(r.Path, r.Data, 0o644); err != nil {
		return ctx.Reply(errResponse(err))
	}
	return ctx.Reply(protocol.OkResponse{})
}

func (a *Api) handleWriteFileText(ctx *rpc.Context, req protocol.Message) error {
	r := req.(protocol.WriteFileTextRequest)
	if err := os.WriteFile(r.Path, []byte(r.Text), 0o644); err != nil {
		return ctx.Reply(errResponse(err))
	}
	return ctx.Reply(protocol.OkResponse{})
}

func (a *Api) handleCreateDir(ctx *rpc.Context, req protocol.Message) error {
	r := req.(protocol.CreateDirRequest)
	var err error
	if r.All {
		err = os.MkdirAll(r.Path, 0o755)
	} else {
		err = os.Mkdir(r.Path, 0o755)
	}
	if err != nil {
		return ctx.Reply(errResponse(err))
	}
	return ctx.Reply(protocol.OkResponse{})
}

func (a *Api) handleRemove(ctx *rpc.Context, req protocol.Message) error {
	r := req.(protocol.RemoveRequest)
	var err error
	if r.Force {
		err = os.RemoveAll(r.Path)
	} else {
		err = os.Remove(r.Path)
	}
	if err != nil {
		return ctx.Reply(errResponse(err))
	}
	return ctx.Reply(protocol.OkResponse{})
}

func (a *Api) handleRename(ctx *rpc.Context, req protocol.Message) error {
	r := req.(protocol.RenameRequest)
	if err := os.Rename(r.Src, r.Dst); err != nil {
		return ctx.Reply(errResponse(err))
	}
	return ctx.Reply(protocol.OkResponse{})
}

func (a *Api) handleCopy(ctx *rpc.Context, req protocol.Message) error {
	r := req.(protocol.CopyRequest)
	if err := copyPath(r.Src, r.Dst); err != nil {
		return ctx.Reply(errResponse(err))
	}
	return ctx.Reply(protocol.OkResponse{})
}

func copyPath(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return copyDir(src, dst, info)
	}
	return copyFile(src, dst, info)
}

func copyFile(src, dst string, info fs.FileInfo) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, info.Mode().Perm())
}

func copyDir(src, dst string, info fs.FileInfo) error {
	if err := os.MkdirAll(dst, info.Mode().Perm()); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		entryInfo, err := entry.Info()
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if err := copyDir(srcPath, dstPath, entryInfo); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(srcPath, dstPath, entryInfo); err != nil {
			return err
		}
	}
	return nil
}

func (a *Api) handleExists(ctx *rpc.Context, req protocol.Message) error {
	r := req.(protocol.ExistsRequest)
	_, err := os.Stat(r.Path)
	return ctx.Reply(protocol.ExistsResponse{Value: err == nil})
}

func (a *Api) handleMetadata(ctx *rpc.Context, req protocol.Message) error {
	r := req.(protocol.MetadataRequest)
	path := r.Path
	if r.Canonicalize {
		resolved, err := filepath.EvalSymlinks(path)
		if err != nil {
			return ctx.Reply(errResponse(err))
		}
		path = resolved
	}

	var info fs.FileInfo
	var err error
	if r.ResolveFileType {
		info, err = os.Stat(path)
	} else {
		info, err = os.Lstat(path)
	}
	if err != nil {
		return ctx.Reply(errResponse(err))
	}

	resp := protocol.MetadataResponse{
		FileType: fileType(info),
		Len:      uint64(info.Size()),
		Readonly: info.Mode().Perm()&0o200 == 0,
		Modified: info.ModTime().UnixMilli(),
	}
	if r.Canonicalize {
		resp.CanonicalizedPath = path
	}
	if unix := unixMetadata(info); unix != nil {
		resp.Unix = unix
	}
	return ctx.Reply(resp)
}

func fileType(info fs.FileInfo) protocol.FileType {
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		return protocol.FileTypeSymlink
	case info.IsDir():
		return protocol.FileTypeDir
	default:
		return protocol.FileTypeFile
	}
}

func (a *Api) handleReadDir(ctx *rpc.Context, req protocol.Message) error {
	r := req.(protocol.ReadDirRequest)
	root := r.Path
	if r.Canonicalize {
		if resolved, err := filepath.EvalSymlinks(root); err == nil {
			root = resolved
		}
	}

	var entries []protocol.DirEntry
	var errs []string
	maxDepth := r.Depth

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			errs = append(errs, err.Error())
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root && !r.IncludeRoot {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		depth := uint32(0)
		if rel != "." {
			depth = uint32(len(filepathSeparatorSplit(rel)))
		}
		if maxDepth > 0 && depth > maxDepth {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		reportPath := rel
		if r.Absolute {
			abs, err := filepath.Abs(path)
			if err == nil {
				reportPath = abs
			}
		}

		info, err := d.Info()
		kind := protocol.FileTypeFile
		if err == nil {
			kind = fileType(info)
		} else if d.IsDir() {
			kind = protocol.FileTypeDir
		}
		entries = append(entries, protocol.DirEntry{Path: reportPath, Type: kind, Depth: depth})
		return nil
	})
	if walkErr != nil && len(entries) == 0 && len(errs) == 0 {
		return ctx.Reply(errResponse(walkErr))
	}

	return ctx.Reply(protocol.DirEntriesResponse{Entries: entries, Errors: errs})
}

func filepathSeparatorSplit(rel string) []string {
	return strings.Split(filepath.ToSlash(rel), "/")
}
