package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/abruzzotech/attesta/internal/config"
	"github.com/abruzzotech/attesta/internal/visura/extract"
)

type Params struct {
	fx.In

	Log    *zap.Logger
	Config config.Config
}

// inbox serves visure from a drop directory: <CF>.pdf next to <CF>.json
// with the extracted tabular content. The download step runs outside this
// system and deposits both files here.
type inbox struct {
	log *zap.Logger
	dir string
}

func NewInbox(p Params) Portal {
	return &inbox{
		log: p.Log.Named("portal.inbox"),
		dir: p.Config.PortalInboxDir,
	}
}

func (p *inbox) FetchVisura(_ context.Context, locatoreCF string) (*FetchResult, error) {
	cf := strings.ToUpper(strings.TrimSpace(locatoreCF))
	if cf == "" {
		return nil, fmt.Errorf("empty fiscal code")
	}

	pdf, err := os.ReadFile(filepath.Join(p.dir, cf+".pdf"))
	if err != nil {
		return nil, fmt.Errorf("visura pdf for %s: %w", cf, err)
	}

	raw, err := os.ReadFile(filepath.Join(p.dir, cf+".json"))
	if err != nil {
		return nil, fmt.Errorf("visura document for %s: %w", cf, err)
	}
	var doc extract.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("visura document for %s: %w", cf, err)
	}

	return &FetchResult{PDF: pdf, Document: &doc}, nil
}

var Module = fx.Provide(NewInbox)
