package sqlite

const schema = `
CREATE TABLE IF NOT EXISTS folders (
    id       TEXT PRIMARY KEY,
    sort_id  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS subscriptions (
    id              TEXT PRIMARY KEY,
    title           TEXT NOT NULL,
    sort_id         TEXT,
    first_item_time DATETIME,
    url             TEXT,
    html_url        TEXT
);

CREATE TABLE IF NOT EXISTS subscription_categories (
    subscription_id TEXT NOT NULL REFERENCES subscriptions(id) ON DELETE CASCADE,
    category_id     TEXT NOT NULL,
    label           TEXT,
    PRIMARY KEY (subscription_id, category_id)
);

CREATE TABLE IF NOT EXISTS articles (
    id                TEXT PRIMARY KEY,
    title             TEXT,
    published         DATETIME NOT NULL,
    updated           DATETIME,
    author            TEXT,
    summary_text      TEXT,
    summary_direction TEXT,
    origin_stream_id  TEXT NOT NULL,
    origin_title      TEXT,
    origin_html_url   TEXT,
    is_read           BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS article_folders (
    article_id TEXT NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
    folder_id  TEXT NOT NULL,
    PRIMARY KEY (article_id, folder_id)
);

CREATE TABLE IF NOT EXISTS article_alternates (
    article_id TEXT NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
    href       TEXT NOT NULL,
    mime_type  TEXT
);

CREATE TABLE IF NOT EXISTS last_sync (
    synced_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS navigation_state (
    folder_id TEXT PRIMARY KEY
);

CREATE INDEX IF NOT EXISTS idx_articles_origin ON articles(origin_stream_id);
CREATE INDEX IF NOT EXISTS idx_articles_published ON articles(published DESC);
CREATE INDEX IF NOT EXISTS idx_article_folders_folder ON article_folders(folder_id);
`
