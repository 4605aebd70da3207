/*
 * Copyright 2025 Olake By Datazip
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package destination

import (
	"context"

	"github.com/datazip-inc/rowsync/pkg/jdbc"
	"github.com/jmoiron/sqlx"
)

// Target is the target connection as seen by the writers of this package.
// *abstract.Conn implements it.
type Target interface {
	jdbc.Queryer
	// BeginTx opens an explicit transaction living as long as ctx
	BeginTx(ctx context.Context) (*sqlx.Tx, error)
	// Rollback rolls tx back, logging instead of returning failures
	Rollback(tx *sqlx.Tx)
	// Rebind rewrites `?` placeholders into the dialect's bind style
	Rebind(query string) string
	QuoteIdentifier(name string) string
}

// Confirmer gates destructive statements behind an affirmative answer.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmerFunc adapts a function to Confirmer.
type ConfirmerFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmerFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// FlagConfirmer answers every prompt with a fixed value taken from
// configuration. It is the confirmation used in unattended runs.
type FlagConfirmer bool

func (f FlagConfirmer) Confirm(_ context.Context, _ string) (bool, error) {
	return bool(f), nil
}
