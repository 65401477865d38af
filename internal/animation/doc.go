// Copyright ©2025 The Gifsmith Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package animation assembles raster frame sequences into animated GIF
// images.
package animation
