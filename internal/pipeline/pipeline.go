// Package pipeline は集約パイプラインビルダーを提供する。
//
// 正規化されたエンティティに対する段階的変換（フィルタ・結合・導出・整形・
// ページング）を宣言的に組み立て、単一のPostgreSQL SELECT文に決定的に
// コンパイルする。導出フィールド（件数・存在判定・合計）はスカラサブクエリ
// として読み取り時に毎回計算され、冗長な保存カウンタを持たない。
//
// ステージ順序は呼び出し順に固定されるが、次の2つの規則のみ例外とする。
//   - 全文検索ステージは常に先頭（関連度ランクが最優先のソートキーになる）
//   - スコープフィルタ（MatchScopeRef）はWHERE句の先頭に置かれる
package pipeline

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hitoshi/cliptube/internal/model"
)

// joinClause は1行結合（JOIN + unwind相当）を表す。
type joinClause struct {
	table   string
	alias   string
	on      string
	columns []string // 結合先から射影するカラム式
	left    bool     // true: 結合相手が無くても行を残す（null許容unwind）
}

// matchClause は等値・存在フィルタを表す。
type matchClause struct {
	expr    string // カラム式
	fold    bool   // 大文字小文字を区別しない比較
	notNull bool   // IS NOT NULL 判定（対象種別の絞り込みに使用）
	value   interface{}
}

// deriveClause は導出フィールド（スカラサブクエリ）を表す。
type deriveClause struct {
	name string
	expr string        // プレースホルダを ? で持つサブクエリ式
	args []interface{} // ? に対応する引数（出現順）
}

// sortClause はソートキーを表す。
type sortClause struct {
	expr string
	dir  model.SortDirection
}

// Pipeline は1つの集約パイプラインを表す。
// メソッドはビルダーとして自身を返す。最初に発生したエラーは保持され、
// Compileで返される（以降のステージ追加は無視される）。
type Pipeline struct {
	from     string
	alias    string
	project  []string
	joins    []joinClause
	scope    *matchClause
	matches  []matchClause
	search   *searchClause
	derives  []deriveClause
	sorts    []sortClause
	tiebreak string
	page     int
	limit    int
	err      error
}

// searchClause は全文検索ステージを表す。
type searchClause struct {
	query   string
	columns []string
}

// From は指定テーブルを基点とする新しいPipelineを生成する。
// aliasは生成SQL内でのテーブル別名。
func From(table, alias string) *Pipeline {
	return &Pipeline{from: table, alias: alias}
}

// Project は出力カラム式のホワイトリストを設定する。
// 未指定の場合は基点テーブルの全カラムを射影する。
func (p *Pipeline) Project(columns ...string) *Pipeline {
	p.project = append(p.project, columns...)
	return p
}

// Match は等値フィルタステージを追加する。
func (p *Pipeline) Match(expr string, value interface{}) *Pipeline {
	p.matches = append(p.matches, matchClause{expr: expr, value: value})
	return p
}

// MatchRef はエンティティ参照による等値フィルタステージを追加する。
// idがUUID形式でない場合、パイプラインはINVALID_REFERENCEで失敗する。
func (p *Pipeline) MatchRef(expr, id string) *Pipeline {
	if p.err != nil {
		return p
	}
	if _, err := uuid.Parse(id); err != nil {
		p.err = model.NewInvalidReferenceError(id)
		return p
	}
	p.matches = append(p.matches, matchClause{expr: expr, value: id})
	return p
}

// MatchScopeRef はスコープフィルタ（例: ownerFilter）を追加する。
// 追加順に関わらずWHERE句の先頭に置かれる。参照はUUID検証される。
func (p *Pipeline) MatchScopeRef(expr, id string) *Pipeline {
	if p.err != nil {
		return p
	}
	if _, err := uuid.Parse(id); err != nil {
		p.err = model.NewInvalidReferenceError(id)
		return p
	}
	p.scope = &matchClause{expr: expr, value: id}
	return p
}

// MatchNotNull は指定カラムが設定されている行のみを残すフィルタステージを追加する。
// いいねエッジの対象種別の絞り込みに使用する。
func (p *Pipeline) MatchNotNull(expr string) *Pipeline {
	p.matches = append(p.matches, matchClause{expr: expr, notNull: true})
	return p
}

// MatchFold は大文字小文字を区別しない等値フィルタステージを追加する。
// チャンネルハンドルの照合に使用する。
func (p *Pipeline) MatchFold(expr, value string) *Pipeline {
	p.matches = append(p.matches, matchClause{expr: expr, value: value, fold: true})
	return p
}

// Search は全文検索ステージを追加する。
// 生エンティティのテキスト列に対して評価されるため、他のどのステージより
// 先に置かれ、関連度ランクが最優先のソートキーになる。
func (p *Pipeline) Search(query string, columns ...string) *Pipeline {
	p.search = &searchClause{query: query, columns: columns}
	return p
}

// JoinOne は1行結合ステージを追加する（unwind相当）。
// 結合相手が存在しない行は結果から除外される（所有者が必ず存在する前提の結合）。
// columnsには結合先から射影するカラム式を指定する。
func (p *Pipeline) JoinOne(table, alias, on string, columns ...string) *Pipeline {
	p.joins = append(p.joins, joinClause{table: table, alias: alias, on: on, columns: columns})
	return p
}

// LeftJoinOne は1行結合ステージを追加する。
// 結合相手が存在しない場合も行を残す（nullフィールド付きunwind）。
func (p *Pipeline) LeftJoinOne(table, alias, on string, columns ...string) *Pipeline {
	p.joins = append(p.joins, joinClause{table: table, alias: alias, on: on, columns: columns, left: true})
	return p
}

// DeriveCount は関連行の件数を導出するステージを追加する。
// foreignExpr = localExpr で相関するスカラサブクエリにコンパイルされる。
func (p *Pipeline) DeriveCount(name, table, foreignExpr, localExpr string) *Pipeline {
	p.derives = append(p.derives, deriveClause{
		name: name,
		expr: fmt.Sprintf("(SELECT COUNT(*) FROM %s WHERE %s = %s)", table, foreignExpr, localExpr),
	})
	return p
}

// DeriveExists は視聴者相対の存在判定フィールドを導出するステージを追加する。
// viewerIDが空（匿名視聴者）の場合は定数FALSEにコンパイルされ、エラーにはならない。
// viewerIDが空でなくUUID形式でもない場合はINVALID_REFERENCEで失敗する。
func (p *Pipeline) DeriveExists(name, table, foreignExpr, localExpr, keyExpr, viewerID string) *Pipeline {
	if p.err != nil {
		return p
	}
	if viewerID == "" {
		p.derives = append(p.derives, deriveClause{name: name, expr: "FALSE"})
		return p
	}
	if _, err := uuid.Parse(viewerID); err != nil {
		p.err = model.NewInvalidReferenceError(viewerID)
		return p
	}
	p.derives = append(p.derives, deriveClause{
		name: name,
		expr: fmt.Sprintf("EXISTS (SELECT 1 FROM %s WHERE %s = %s AND %s = ?)", table, foreignExpr, localExpr, keyExpr),
		args: []interface{}{viewerID},
	})
	return p
}

// DeriveFrom はサブパイプラインに対する集約式を導出するステージを追加する。
// 結合ステージがネストしたサブパイプラインを持つケース（例: プレイリスト
// 収録動画の視聴回数合計）に使用する。サブパイプラインの相関条件には
// MatchOuterを使用する。
func (p *Pipeline) DeriveFrom(name string, sub *Pipeline, aggExpr string) *Pipeline {
	if p.err != nil {
		return p
	}
	if sub.err != nil {
		p.err = sub.err
		return p
	}
	sql, args := sub.compileCorrelated(aggExpr)
	p.derives = append(p.derives, deriveClause{name: name, expr: sql, args: args})
	return p
}

// MatchOuter は外側パイプラインのカラムとの相関条件を追加する。
// DeriveFromに渡すサブパイプラインでのみ意味を持つ。
func (p *Pipeline) MatchOuter(expr, outerExpr string) *Pipeline {
	p.matches = append(p.matches, matchClause{expr: expr, value: rawExpr(outerExpr)})
	return p
}

// rawExpr は引数ではなくSQL式として埋め込まれる値を表す。
type rawExpr string

// Sort は安定ソートステージを追加する。
// 同値の場合の順序は、Compileがタイブレークキー（既定は基点テーブルのid、
// Tiebreakで変更可能）を最終キーに加えることでページをまたいで安定になる。
func (p *Pipeline) Sort(expr string, dir model.SortDirection) *Pipeline {
	p.sorts = append(p.sorts, sortClause{expr: expr, dir: dir})
	return p
}

// Tiebreak は安定化に使うタイブレークキーを上書きする。
// 基点テーブルがidカラムを持たない複合主キーのテーブル
// （watch_history、playlist_videos）では、スコープ内で一意なカラムを
// 指定すること。
func (p *Pipeline) Tiebreak(expr string) *Pipeline {
	p.tiebreak = expr
	return p
}

// Paginate はオフセットページングを設定する。
// pageとlimitは1以上に正規化される。
func (p *Pipeline) Paginate(page, limit int) *Pipeline {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	p.page = page
	p.limit = limit
	return p
}

// Compile はパイプラインを単一のSELECT文と引数リストにコンパイルする。
// 同じステージ構成からは常に同一のSQLが生成される。
func (p *Pipeline) Compile() (string, []interface{}, error) {
	if p.err != nil {
		return "", nil, p.err
	}

	var args []interface{}
	bind := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	// SELECT句: 基点の射影 → 結合先の射影 → 導出フィールド
	var cols []string
	if len(p.project) == 0 {
		cols = append(cols, p.alias+".*")
	} else {
		cols = append(cols, p.project...)
	}
	for _, j := range p.joins {
		cols = append(cols, j.columns...)
	}
	for _, d := range p.derives {
		expr := d.expr
		for _, a := range d.args {
			expr = strings.Replace(expr, "?", bind(a), 1)
		}
		cols = append(cols, fmt.Sprintf("%s AS %s", expr, d.name))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s %s", strings.Join(cols, ", "), p.from, p.alias)

	for _, j := range p.joins {
		kind := "JOIN"
		if j.left {
			kind = "LEFT JOIN"
		}
		fmt.Fprintf(&b, " %s %s %s ON %s", kind, j.table, j.alias, j.on)
	}

	// WHERE句: スコープフィルタ → 検索 → その他のマッチ（追加順）
	var wheres []string
	if p.scope != nil {
		wheres = append(wheres, fmt.Sprintf("%s = %s", p.scope.expr, bind(p.scope.value)))
	}
	var rank string
	if p.search != nil {
		vector := searchVector(p.search.columns)
		tsquery := fmt.Sprintf("websearch_to_tsquery('simple', %s)", bind(p.search.query))
		wheres = append(wheres, fmt.Sprintf("%s @@ %s", vector, tsquery))
		rank = fmt.Sprintf("ts_rank(%s, %s)", vector, tsquery)
	}
	for _, m := range p.matches {
		wheres = append(wheres, compileMatch(m, bind))
	}
	if len(wheres) > 0 {
		fmt.Fprintf(&b, " WHERE %s", strings.Join(wheres, " AND "))
	}

	// ORDER BY句: 検索ランク → 明示ソート → タイブレークキーによる安定化
	var orders []string
	if rank != "" {
		orders = append(orders, rank+" DESC")
	}
	for _, s := range p.sorts {
		dir := "ASC"
		if s.dir == model.SortDesc {
			dir = "DESC"
		}
		orders = append(orders, fmt.Sprintf("%s %s", s.expr, dir))
	}
	if len(orders) > 0 {
		tiebreak := p.tiebreak
		if tiebreak == "" {
			tiebreak = p.alias + ".id"
		}
		orders = append(orders, tiebreak+" ASC")
		fmt.Fprintf(&b, " ORDER BY %s", strings.Join(orders, ", "))
	}

	if p.limit > 0 {
		fmt.Fprintf(&b, " OFFSET %s LIMIT %s", bind((p.page-1)*p.limit), bind(p.limit))
	}

	return b.String(), args, nil
}

// compileCorrelated はサブパイプラインを相関スカラサブクエリにコンパイルする。
// プレースホルダは ? のまま残し、外側のCompileで番号が振られる。
func (p *Pipeline) compileCorrelated(aggExpr string) (string, []interface{}) {
	var args []interface{}

	var b strings.Builder
	fmt.Fprintf(&b, "(SELECT %s FROM %s %s", aggExpr, p.from, p.alias)
	for _, j := range p.joins {
		kind := "JOIN"
		if j.left {
			kind = "LEFT JOIN"
		}
		fmt.Fprintf(&b, " %s %s %s ON %s", kind, j.table, j.alias, j.on)
	}

	var wheres []string
	for _, m := range p.matches {
		if m.notNull {
			wheres = append(wheres, m.expr+" IS NOT NULL")
			continue
		}
		if raw, ok := m.value.(rawExpr); ok {
			wheres = append(wheres, fmt.Sprintf("%s = %s", m.expr, string(raw)))
			continue
		}
		args = append(args, m.value)
		if m.fold {
			wheres = append(wheres, fmt.Sprintf("LOWER(%s) = LOWER(?)", m.expr))
		} else {
			wheres = append(wheres, m.expr+" = ?")
		}
	}
	if len(wheres) > 0 {
		fmt.Fprintf(&b, " WHERE %s", strings.Join(wheres, " AND "))
	}
	b.WriteString(")")

	return b.String(), args
}

// compileMatch は1つのマッチ条件をSQL断片に変換する。
func compileMatch(m matchClause, bind func(interface{}) string) string {
	if m.notNull {
		return m.expr + " IS NOT NULL"
	}
	if raw, ok := m.value.(rawExpr); ok {
		return fmt.Sprintf("%s = %s", m.expr, string(raw))
	}
	if m.fold {
		return fmt.Sprintf("LOWER(%s) = LOWER(%s)", m.expr, bind(m.value))
	}
	return fmt.Sprintf("%s = %s", m.expr, bind(m.value))
}

// searchVector は検索対象カラムを連結したtsvector式を生成する。
func searchVector(columns []string) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = fmt.Sprintf("coalesce(%s, '')", c)
	}
	return fmt.Sprintf("to_tsvector('simple', %s)", strings.Join(parts, " || ' ' || "))
}
