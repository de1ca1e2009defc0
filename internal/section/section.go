// Package section はトップレベルのナビゲーション先（セクション）を定義する。
//
// セクションの集合とその表示名・アイコンキーはこのパッケージで一度だけ宣言され、
// カプセルバーとサイドバーの両ナビゲーション戦略が同じ値を参照する。
package section

// Section は6つの固定されたトップレベルナビゲーション先のいずれかを表す。
// ゼロ値はFeaturedであり、選択状態の初期値と一致する。
type Section uint8

const (
	Featured Section = iota
	Info
	Browse
	Wishlist
	Acquired
	Orders
)

// count はセクション数。新しい値を追加した場合は必ず末尾に置くこと。
const count = int(Orders) + 1

type attributes struct {
	slug  string
	title string
	icon  string
}

var table = [count]attributes{
	Featured: {slug: "featured", title: "Featured", icon: "star.fill"},
	Info:     {slug: "info", title: "Info", icon: "info.circle"},
	Browse:   {slug: "browse", title: "Browse", icon: "square.grid.2x2"},
	Wishlist: {slug: "wishlist", title: "Wishlist", icon: "heart"},
	Acquired: {slug: "acquired", title: "Acquired", icon: "shippingbox.fill"},
	Orders:   {slug: "orders", title: "Orders", icon: "list.bullet.rectangle.portrait"},
}

// All は全セクションを宣言順で返す。呼び出し側が変更しても影響しないよう毎回新しいスライスを返す。
func All() []Section {
	out := make([]Section, count)
	for i := range out {
		out[i] = Section(i)
	}
	return out
}

// Valid は値が定義済みのセクションかどうかを返す。
func (s Section) Valid() bool {
	return int(s) < count
}

// Slug はURLやストレージで使う安定したキーを返す。未定義の値には空文字列を返す。
func (s Section) Slug() string {
	if !s.Valid() {
		return ""
	}
	return table[s].slug
}

// Title は表示名を返す。
func (s Section) Title() string {
	if !s.Valid() {
		return ""
	}
	return table[s].title
}

// Icon はアイコンキー（SF Symbols名）を返す。
func (s Section) Icon() string {
	if !s.Valid() {
		return ""
	}
	return table[s].icon
}

// String はfmt.Stringerを実装する。
func (s Section) String() string {
	if !s.Valid() {
		return "section(invalid)"
	}
	return table[s].slug
}

// Parse はスラッグからセクションを解決する。該当しない場合はfalseを返す。
func Parse(slug string) (Section, bool) {
	for i, a := range table {
		if a.slug == slug {
			return Section(i), true
		}
	}
	return Featured, false
}

// OrFeatured は未定義の値をFeaturedに置き換える。
func (s Section) OrFeatured() Section {
	if !s.Valid() {
		return Featured
	}
	return s
}
