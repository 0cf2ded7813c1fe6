package model

import (
	"encoding/gob"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/aurora/pkg/errors"
)

// SaveModel はモデルを gob でファイルに保存する
//
// 書き込みは同じディレクトリの一時ファイルに行い、完了後に rename で置き換えるため、
// 途中まで書かれたファイルが filename に現れることはない。
//
// 使用例:
//
//	err := model.SaveModel(&artifact, "artifacts/model.gob")
func SaveModel(model interface{}, filename string) error {
	return WriteFileAtomic(filename, func(w io.Writer) error {
		return SaveModelToWriter(model, w)
	})
}

// LoadModel はファイルからモデルを読み込む
//
// ファイルが存在しない場合は NotFoundError、デコードに失敗した場合は IOFailure を返す。
//
// 使用例:
//
//	var artifact pipeline.ModelArtifact
//	err := model.LoadModel(&artifact, "artifacts/model.gob")
func LoadModel(model interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errors.NewNotFoundError("artifact", filename)
		}
		return errors.NewIOFailure("open", filename, err)
	}
	defer file.Close()

	if err := LoadModelFromReader(model, file); err != nil {
		return errors.NewIOFailure("decode", filename, err)
	}
	return nil
}

// SaveModelToWriter はモデルをio.Writerに保存する
func SaveModelToWriter(model interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(model); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadModelFromReader はio.Readerからモデルを読み込む
func LoadModelFromReader(model interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(model); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return nil
}

// WriteFileAtomic は write の出力を filename に原子的に書き込む。
// 失敗した場合、一時ファイルは削除され、既存の filename は変更されない。
func WriteFileAtomic(filename string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(filename)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filename)+".tmp-*")
	if err != nil {
		return errors.NewIOFailure("create", filename, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return errors.NewIOFailure("write", filename, err)
	}
	if err = tmp.Sync(); err != nil {
		return errors.NewIOFailure("sync", filename, err)
	}
	if err = tmp.Close(); err != nil {
		return errors.NewIOFailure("close", filename, err)
	}
	if err = os.Rename(tmp.Name(), filename); err != nil {
		return errors.NewIOFailure("rename", filename, err)
	}
	return nil
}
